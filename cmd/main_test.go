// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/bulklogin/internal/config"
	"github.com/xkilldash9x/bulklogin/internal/observability"
)

// resetForTest provides the single source of truth for resetting test state.
func resetForTest(t *testing.T) {
	t.Helper()

	// Keep the shared logger silent and away from the working directory.
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})

	original := newBrowserSession
	t.Cleanup(func() {
		newBrowserSession = original
		observability.ResetForTest()
	})
}

// executeCommand runs a pristine root command with args and returns its output.
func executeCommand(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetForTest(t)
	return executeCommandNoReset(t, ctx, args...)
}

// executeCommandNoReset is executeCommand for tests that replace collaborators
// after resetForTest.
func executeCommandNoReset(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// findCommand returns the named subcommand of a pristine root command.
func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	sub, _, err := NewRootCommand().Find([]string{name})
	require.NoError(t, err)
	return sub
}
