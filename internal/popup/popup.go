// Package popup clears cookie banners, consent dialogs, native alerts and
// modal overlays that would otherwise cover a login form.
package popup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/bulklogin/internal/browser"
	"github.com/xkilldash9x/bulklogin/internal/config"
)

// Step names, in execution order.
const (
	StepDialog   = "dialog"
	StepConsent  = "consent-buttons"
	StepIframes  = "iframes"
	StepEscape   = "escape"
	StepOverlays = "overlays"
)

const lowerCase = "translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')"

// ConsentLocators are clicked wherever a displayed match exists.
var ConsentLocators = []string{
	"//button[contains(" + lowerCase + ", 'kabul')]",
	"//button[contains(" + lowerCase + ", 'accept')]",
	"//button[contains(" + lowerCase + ", 'agree')]",
	"//button[contains(" + lowerCase + ", 'tamam')]",
	"//button[contains(" + lowerCase + ", 'close')]",
	"//*[contains(@class,'cookie') and contains(" + lowerCase + ", 'accept')]",
	"//*[contains(@id,'cookie') and contains(" + lowerCase + ", 'accept')]",
	"//*[contains(@class,'consent')]",
	"//*[contains(@id,'consent')]",
	"//*[@role='dialog']//*[contains(" + lowerCase + ", 'accept')]",
	"//*[@aria-label='close']",
	"//button[contains(@class,'close') or contains(@class,'btn-close')]",
}

// FrameWords are matched against button and link text inside iframes.
var FrameWords = []string{"accept", "kabul", "agree", "tamam", "close", "kapat", "ok", "got it"}

// OverlayScripts remove common overlay containers from the main document.
var OverlayScripts = []string{
	`document.querySelectorAll('[role="dialog"]').forEach(e=>e.remove());`,
	`document.querySelectorAll('.modal').forEach(e=>e.remove());`,
	`document.querySelectorAll('.cookie-banner').forEach(e=>e.remove());`,
	`document.querySelectorAll('[id*="cookie"]').forEach(e=>e.remove());`,
	`document.querySelectorAll('[class*="cookie"]').forEach(e=>e.remove());`,
}

// StepResult is the outcome of one dismissal step. Err is informational only.
type StepResult struct {
	Step    string
	Handled bool
	Err     error
}

type stepFunc func(ctx context.Context, page browser.Page) (handled bool, err error)

type step struct {
	name string
	run  stepFunc
}

// Dismisser runs the popup dismissal steps against a page.
type Dismisser struct {
	cfg    config.PopupConfig
	logger *zap.Logger
}

func New(cfg config.PopupConfig, logger *zap.Logger) *Dismisser {
	return &Dismisser{cfg: cfg, logger: logger.Named("popup")}
}

// Dismiss runs every enabled step in order and then waits for the page to
// settle. A failing or panicking step never stops the remaining steps.
func (d *Dismisser) Dismiss(ctx context.Context, page browser.Page) []StepResult {
	steps := []step{
		{StepDialog, d.closeDialog},
		{StepConsent, d.clickConsent},
	}
	if d.cfg.SearchIframes {
		steps = append(steps, step{StepIframes, d.clickInFrames})
	}
	steps = append(steps, step{StepEscape, d.pressEscape})
	if d.cfg.RemoveOverlays {
		steps = append(steps, step{StepOverlays, d.removeOverlays})
	}

	results := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		if ctx.Err() != nil {
			break
		}
		res := d.runStep(ctx, page, s.name, s.run)
		d.logger.Debug("Popup step finished.",
			zap.String("step", res.Step),
			zap.Bool("handled", res.Handled),
			zap.Error(res.Err))
		results = append(results, res)
	}

	sleep(ctx, d.cfg.SettleDelay)
	return results
}

func (d *Dismisser) runStep(ctx context.Context, page browser.Page, name string, run stepFunc) (res StepResult) {
	res.Step = name
	defer func() {
		if r := recover(); r != nil {
			res.Handled = false
			res.Err = fmt.Errorf("panic in popup step %s: %v", name, r)
		}
	}()
	res.Handled, res.Err = run(ctx, page)
	return res
}

func (d *Dismisser) closeDialog(ctx context.Context, page browser.Page) (bool, error) {
	if !page.DialogOpen() {
		return false, nil
	}
	dismissErr := page.HandleDialog(ctx, false)
	if dismissErr == nil {
		return true, nil
	}
	if err := page.HandleDialog(ctx, true); err != nil {
		return false, errors.Join(dismissErr, err)
	}
	return true, nil
}

func (d *Dismisser) clickConsent(ctx context.Context, page browser.Page) (bool, error) {
	var (
		clicked int
		errs    []error
	)
	for _, xp := range ConsentLocators {
		elements, err := page.FindAll(ctx, xp)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, el := range elements {
			// Stale or detached nodes are skipped.
			visible, err := el.Displayed(ctx)
			if err != nil || !visible {
				continue
			}
			if err := el.Click(ctx); err != nil {
				if err := el.ScriptClick(ctx); err != nil {
					errs = append(errs, err)
					continue
				}
			}
			clicked++
			sleep(ctx, d.cfg.ClickPause)
		}
	}
	return clicked > 0, errors.Join(errs...)
}

func (d *Dismisser) clickInFrames(ctx context.Context, page browser.Page) (bool, error) {
	n, err := page.ClickInFrames(ctx, FrameWords, d.cfg.ClickPause)
	return n > 0, err
}

func (d *Dismisser) pressEscape(ctx context.Context, page browser.Page) (bool, error) {
	if err := page.PressEscape(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Dismisser) removeOverlays(ctx context.Context, page browser.Page) (bool, error) {
	var errs []error
	for _, script := range OverlayScripts {
		if err := page.Execute(ctx, script); err != nil {
			errs = append(errs, err)
		}
	}
	return len(errs) < len(OverlayScripts), errors.Join(errs...)
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
