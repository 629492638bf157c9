// Package attempt runs a single login attempt end to end and classifies the
// page it lands on.
package attempt

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/bulklogin/internal/browser"
	"github.com/xkilldash9x/bulklogin/internal/config"
	"github.com/xkilldash9x/bulklogin/internal/locator"
	"github.com/xkilldash9x/bulklogin/internal/popup"
	"github.com/xkilldash9x/bulklogin/internal/workbook"
)

// Dismisser clears obstructing popups from the page.
type Dismisser interface {
	Dismiss(ctx context.Context, page browser.Page) []popup.StepResult
}

// Executor performs attempts against a shared page.
type Executor struct {
	page     browser.Page
	popups   Dismisser
	cfg      config.AttemptConfig
	locators config.LocatorsConfig
	logger   *zap.Logger
}

func NewExecutor(page browser.Page, popups Dismisser, cfg config.AttemptConfig, locators config.LocatorsConfig, logger *zap.Logger) *Executor {
	return &Executor{
		page:     page,
		popups:   popups,
		cfg:      cfg,
		locators: locators,
		logger:   logger.Named("attempt"),
	}
}

// Attempt logs in with the row's credentials and returns the classified
// outcome. It never returns a Go error; failures are 500 outcomes.
func (e *Executor) Attempt(ctx context.Context, row *workbook.Row) Outcome {
	target := NormalizeURL(row.TargetURL)
	if !ValidURL(target) {
		return InvalidURL()
	}
	logger := e.logger.With(zap.Int("row", row.Index), zap.String("url", target))

	if err := e.page.Navigate(ctx, target); err != nil {
		return SystemError(err)
	}
	if err := e.page.WaitReady(ctx, e.cfg.WaitTimeout); err != nil {
		logger.Debug("Document body not ready, continuing.", zap.Error(err))
	}
	e.popups.Dismiss(ctx, e.page)

	emailCands := locator.Candidates(locator.RoleEmail, row.EmailLocator, e.locators)
	if err := e.fill(ctx, logger, emailCands, row.Username); err != nil {
		if ctx.Err() != nil {
			return SystemError(ctx.Err())
		}
		logger.Error("Email input not found.", zap.Error(err))
		return EmailNotFound(err)
	}

	passCands := locator.Candidates(locator.RolePassword, row.PasswordLocator, e.locators)
	if err := e.fill(ctx, logger, passCands, row.Password); err != nil {
		if ctx.Err() != nil {
			return SystemError(ctx.Err())
		}
		logger.Error("Password input not found.", zap.Error(err))
		return PasswordNotFound(err)
	}

	loginCands := locator.Candidates(locator.RoleLogin, row.LoginLocator, e.locators)
	clicked, err := locator.ClickFirst(ctx, e.page, loginCands, e.cfg.WaitTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return SystemError(ctx.Err())
		}
		logger.Error("Login button could not be clicked.", zap.Error(err))
		return LoginNotClicked(err)
	}
	logger.Debug("Login control clicked.", zap.String("locator", clicked))

	if err := sleep(ctx, e.cfg.SettleDelay); err != nil {
		return SystemError(err)
	}

	// A native dialog raised by the submit blocks every script and DOM read.
	if e.page.DialogOpen() {
		if err := e.closeDialog(ctx, logger); err != nil {
			return ResultCheckError(err)
		}
	}

	currentURL, source, err := e.readResult(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return SystemError(ctx.Err())
		}
		return ResultCheckError(err)
	}
	return Classify(currentURL, source, e.cfg.SuccessKeywords, e.cfg.FailureKeywords, e.cfg.ExcerptLength)
}

// fill resolves the field and types value into it. Clearing is best effort.
// value is never logged.
func (e *Executor) fill(ctx context.Context, logger *zap.Logger, candidates []string, value string) error {
	el, matched, err := locator.FindWithFallback(ctx, e.page, candidates, e.cfg.WaitTimeout)
	if err != nil {
		return err
	}
	logger.Debug("Field resolved.", zap.String("locator", matched))

	opCtx, cancel := context.WithTimeout(ctx, e.cfg.WaitTimeout)
	defer cancel()

	if err := el.Clear(opCtx); err != nil {
		logger.Debug("Could not clear field.", zap.String("locator", matched), zap.Error(err))
	}
	if err := el.SendKeys(opCtx, value); err != nil {
		return fmt.Errorf("failed to type into %s: %w", matched, err)
	}
	return nil
}

// closeDialog dismisses the open dialog, accepting it when dismissal fails.
func (e *Executor) closeDialog(ctx context.Context, logger *zap.Logger) error {
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.WaitTimeout)
	defer cancel()

	err := e.page.HandleDialog(opCtx, false)
	if err != nil {
		err = e.page.HandleDialog(opCtx, true)
	}
	if err != nil {
		return fmt.Errorf("failed to close dialog after submit: %w", err)
	}
	logger.Debug("Closed dialog raised by the submit.")
	return nil
}

// readResult reads the landing URL and page source within the wait timeout.
func (e *Executor) readResult(ctx context.Context) (string, string, error) {
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.WaitTimeout)
	defer cancel()

	currentURL, err := e.page.Location(opCtx)
	if err != nil {
		return "", "", err
	}
	source, err := e.page.Source(opCtx)
	if err != nil {
		return "", "", err
	}
	return currentURL, source, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
