// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

// -- Fakes --

type fakeDriver struct {
	mu        sync.Mutex
	platform  schemas.Platform
	elements  []schemas.Element
	calls     []string
	closed    bool
	snapModes []schemas.SnapshotMode
}

var _ schemas.Driver = (*fakeDriver)(nil)

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		platform: schemas.PlatformBrowser,
		elements: []schemas.Element{
			{Selector: "#username", Tag: "input", Placeholder: "Username"},
			{Selector: "#login", Tag: "button", Text: "Login"},
		},
	}
}

func (d *fakeDriver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	d.record("click " + selector)
	return nil
}

func (d *fakeDriver) SetValue(ctx context.Context, selector, text string) error {
	d.record("set " + selector + "=" + text)
	return nil
}

func (d *fakeDriver) Tap(ctx context.Context, selector string) error {
	d.record("tap " + selector)
	return nil
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.record("navigate " + url)
	return nil
}

func (d *fakeDriver) Platform() schemas.Platform { return d.platform }

func (d *fakeDriver) Snapshot(ctx context.Context, mode schemas.SnapshotMode) ([]schemas.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapModes = append(d.snapModes, mode)
	return d.elements, nil
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// fakeLLM answers every request with fixed replies.
type fakeLLM struct {
	sendReply string
	chatReply string
}

func (l *fakeLLM) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	return l.sendReply, nil
}

func (l *fakeLLM) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	return l.chatReply, nil
}

// -- Test Setup Helpers --

type harness struct {
	driver *fakeDriver
	llm    *fakeLLM
	cfg    *config.Config // configuration seen by the driver factory
	llmCfg config.LLMConfig
}

// setupHarness swaps the driver and LLM constructors for fakes.
func setupHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		driver: newFakeDriver(),
		llm: &fakeLLM{
			sendReply: `[{"action":"SET_VALUE","target":"#username","value":"admin"},{"action":"CLICK","target":"#login"}]`,
			chatReply: `{"reasoning":"done","actions":[{"action":"CLICK","target":"#login"}],"done":true}`,
		},
	}

	origDriver, origLLM := newDriver, newLLMClient
	t.Cleanup(func() { newDriver, newLLMClient = origDriver, origLLM })

	newDriver = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.Driver, error) {
		h.cfg = cfg
		return h.driver, nil
	}
	newLLMClient = func(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
		h.llmCfg = cfg
		return h.llm, nil
	}

	// Keep config discovery away from any pilot.yaml on the machine.
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return h
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	var in io.Reader = strings.NewReader(stdin)
	root.SetIn(in)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
