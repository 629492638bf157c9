// File: cmd/bulklogin/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("failed to load input")))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("WritesPanicLog", func(t *testing.T) {
		var written string
		var path string
		exitCalled := -1
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			path = name
			written = string(data)
			return nil
		}
		osExit = func(code int) { exitCalled = code }

		func() {
			defer handlePanic()
			panic("session exploded")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.True(t, strings.HasPrefix(written, "panic: session exploded"))
		assert.Contains(t, written, "goroutine")
		assert.Equal(t, 1, exitCalled)
	})

	t.Run("WriteFailure", func(t *testing.T) {
		exitCalled := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }
		osExit = func(code int) { exitCalled = code }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 1, exitCalled)
	})

	t.Run("NoPanic", func(t *testing.T) {
		osWriteFile = func(string, []byte, os.FileMode) error {
			require.Fail(t, "panic log must not be written without a panic")
			return nil
		}
		osExit = func(int) { require.Fail(t, "exit must not be called without a panic") }

		func() {
			defer handlePanic()
		}()
	})
}
