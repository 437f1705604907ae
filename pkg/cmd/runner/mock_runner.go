package runner

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of the Runner interface for testing.
type MockRunner struct {
	mock.Mock
}

// NewMockRunner creates a new MockRunner instance.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Run mocks running an external command.
func (m *MockRunner) Run(ctx context.Context, inv Invocation) (CommandResult, error) {
	args := m.Called(ctx, inv)

	result, ok := args.Get(0).(CommandResult)
	if !ok {
		return CommandResult{}, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// Commands returns the argument vectors of every recorded Run call, in order.
func (m *MockRunner) Commands() [][]string {
	commands := make([][]string, 0, len(m.Calls))

	for _, call := range m.Calls {
		if call.Method != "Run" {
			continue
		}

		if inv, ok := call.Arguments.Get(1).(Invocation); ok {
			commands = append(commands, inv.Args)
		}
	}

	return commands
}
