package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bulklogin/internal/attempt"
	"github.com/xkilldash9x/bulklogin/internal/browser"
	"github.com/xkilldash9x/bulklogin/internal/config"
	"github.com/xkilldash9x/bulklogin/internal/observability"
	"github.com/xkilldash9x/bulklogin/internal/orchestrator"
	"github.com/xkilldash9x/bulklogin/internal/popup"
	"github.com/xkilldash9x/bulklogin/internal/workbook"
)

const sessionCloseTimeout = 10 * time.Second

// pageSession is a browser page that owns its underlying browser process.
type pageSession interface {
	browser.Page
	Close(ctx context.Context) error
}

// newBrowserSession starts the shared browser. Tests replace it with an offline page.
var newBrowserSession = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (pageSession, error) {
	return browser.NewSession(ctx, cfg, logger)
}

// newRunCmd creates the `run` command, which attempts every row of the input workbook.
func newRunCmd() *cobra.Command {
	var (
		headless bool
		wait     int
		output   string
		sheet    string
	)

	runCmd := &cobra.Command{
		Use:   "run [file.xlsx]",
		Short: "Attempts a login for every row of the workbook and writes the results",
		Long: `Reads the credential rows from the given workbook (or the most recently
modified workbook in the working directory), tries to log in to each site in a single
browser session and writes every original column plus a status column to the output file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("wait") {
				if wait <= 0 {
					return fmt.Errorf("--wait must be a positive number of seconds")
				}
				cfg.Attempt.WaitTimeout = time.Duration(wait) * time.Second
			}
			return runLogins(cmd, cfg, args)
		},
	}

	runCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	runCmd.Flags().IntVarP(&wait, "wait", "w", 12, "seconds to wait for each element")
	runCmd.Flags().StringVarP(&output, "output", "o", "login_results.xlsx", "path of the results workbook")
	runCmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read (default is the first sheet)")
	return runCmd
}

// runLogins is the body of the run command, split out for testing.
func runLogins(cmd *cobra.Command, cfg *config.Config, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	out := cmd.OutOrStdout()

	path, err := resolveInput(cfg.Input, args)
	if err != nil {
		return err
	}

	sheet, err := workbook.Load(path, cfg.Input.Sheet)
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	logger.Info("Input workbook loaded.",
		zap.String("path", path),
		zap.String("sheet", sheet.Name),
		zap.Int("rows", len(sheet.Rows)),
		zap.Bool("legacy_columns", sheet.Columns.Legacy),
	)
	fmt.Fprintf(out, "Toplam %d hesap test edilecek\n", len(sheet.Rows))

	session, err := newBrowserSession(ctx, cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		// The run context may already be canceled; closing gets its own deadline.
		closeCtx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			logger.Warn("Failed to close browser session cleanly.", zap.Error(err))
		}
	}()

	dismisser := popup.New(cfg.Popup, logger)
	executor := attempt.NewExecutor(session, dismisser, cfg.Attempt, cfg.Locators, logger)
	orch, err := orchestrator.New(executor, cfg.Run, logger, out)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	orch.Run(ctx, sheet.Rows)

	if err := sheet.Save(cfg.Input.Output); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Info("Results written.", zap.String("path", cfg.Input.Output))
	fmt.Fprintf(out, "\nTest tamamlandı! Sonuçlar: %s\n", cfg.Input.Output)

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// resolveInput picks the workbook path: the positional argument, then the
// configured path, then the newest workbook in the working directory.
func resolveInput(cfg config.InputConfig, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	path, err := workbook.FindLatest(".", cfg.Pattern, cfg.Output)
	if err != nil {
		if errors.Is(err, workbook.ErrNoInputFile) {
			return "", fmt.Errorf("no input workbook matching %q in the working directory: %w", cfg.Pattern, err)
		}
		return "", err
	}
	return path, nil
}
