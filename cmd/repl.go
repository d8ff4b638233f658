// cmd/repl.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/observability"
	"github.com/xkilldash9x/pilot-cli/internal/prompts"
)

const (
	replPrompt  = "agent> "
	replExitCmd = ".exit"
)

// goalRunner is the slice of the agent the REPL needs.
type goalRunner interface {
	Run(ctx context.Context, goal string, opts schemas.CallOptions) (*schemas.AgentResult, error)
}

func newReplCmd() *cobra.Command {
	var targetURL string

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively send natural language commands to a live session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer ws.close()

			if targetURL != "" {
				if err := ws.driver.Navigate(ctx, schemas.NormalizeURL(targetURL)); err != nil {
					return err
				}
			}
			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), ws.agent, logger)
		},
	}
	replCmd.Flags().StringVar(&targetURL, "url", "", "URL to open before the first command")
	return replCmd
}

// runREPL reads one goal per line and runs it until .exit, EOF or ctx ends.
// Goal failures are printed and never end the session.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, runner goalRunner, logger *zap.Logger) error {
	sessionID := uuid.New().String()
	logger = logger.Named("repl").With(zap.String("repl_session", sessionID))

	fmt.Fprintln(out, "\n  Agent debug mode: type natural language commands")
	fmt.Fprintf(out, "  Type %s to quit\n\n", replExitCmd)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == replExitCmd {
			break
		}

		logger.Debug("Running REPL command", zap.String("goal", line))
		result, err := runner.Run(ctx, line, schemas.CallOptions{})
		if err != nil {
			fmt.Fprintf(out, "  Error: %s\n", err.Error())
			continue
		}
		for _, step := range result.Steps {
			for _, r := range step.Actions {
				fmt.Fprintf(out, "  %s\n", prompts.FormatResult(r))
			}
		}
	}

	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
