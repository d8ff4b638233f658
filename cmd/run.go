// cmd/run.go
package cmd

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newRunCmd creates the `run` command, which executes one goal and prints the
// result as JSON.
func newRunCmd() *cobra.Command {
	var targetURL string

	runCmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Run the agent once against a fresh browser or device session",
		Example: `  pilot run --url example.com "click the login button"
  pilot run --max-steps 5 --provider anthropic "log in as admin with password secret"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			goal := strings.TrimSpace(strings.Join(args, " "))
			if goal == "" {
				return fmt.Errorf("goal must not be empty")
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

			result, err := ws.agent.Run(ctx, goal, schemas.CallOptions{})
			if err != nil {
				return err
			}

			logger.Info("Run complete",
				zap.String("run_id", result.RunID),
				zap.Bool("goal_achieved", result.GoalAchieved),
				zap.Int("total_steps", result.TotalSteps),
			)
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	runCmd.Flags().StringVar(&targetURL, "url", "", "URL to open before running the goal")
	runCmd.Flags().Int("max-steps", 0, "maximum agent steps (1 = single pass)")
	runCmd.Flags().Int("max-actions", 0, "maximum actions in single-pass mode")
	runCmd.Flags().String("provider", "", "LLM provider: ollama, anthropic, openai, gemini")
	runCmd.Flags().String("model", "", "model name (provider default when empty)")
	bindFlag(runCmd, "max-steps", "agent.max_steps")
	bindFlag(runCmd, "max-actions", "agent.max_actions")
	bindFlag(runCmd, "provider", "llm.provider")
	bindFlag(runCmd, "model", "llm.model")
	return runCmd
}
