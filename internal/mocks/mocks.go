// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

var _ schemas.LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) Send(ctx context.Context, prompt schemas.PromptInput, opts schemas.ChatOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []schemas.ChatMessage, opts schemas.ChatOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

// -- Driver Mock --

// MockDriver mocks a live automation session together with its snapshot
// source. The platform is fixed at construction rather than mocked.
type MockDriver struct {
	mock.Mock
	platform schemas.Platform
}

var _ schemas.Driver = (*MockDriver)(nil)

// NewMockDriver creates a MockDriver reporting platform.
func NewMockDriver(platform schemas.Platform) *MockDriver {
	return &MockDriver{platform: platform}
}

func (m *MockDriver) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) SetValue(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}

func (m *MockDriver) Tap(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) Platform() schemas.Platform { return m.platform }

func (m *MockDriver) Snapshot(ctx context.Context, mode schemas.SnapshotMode) ([]schemas.Element, error) {
	args := m.Called(ctx, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.Element), args.Error(1)
}

func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
