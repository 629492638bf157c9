// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bulklogin/internal/config"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	pollInterval             = 250 * time.Millisecond
)

// Session is a single browser tab driven over CDP. It owns the browser process
// and is reused for every row of a run. Session implements Page.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel stops the browser process.
	allocCancel context.CancelFunc
	logger      *zap.Logger
	cfg         config.BrowserConfig

	dialogOpen atomic.Bool

	mu       sync.Mutex
	isClosed bool
}

// Ensure Session implements the interface.
var _ Page = (*Session)(nil)

// NewSession launches the browser and opens the first tab. The returned session
// lives until Close is called or ctx is canceled.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	sessionLogger := logger.Named("browser").With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, DefaultAllocatorOptions(cfg)...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(sessionLogger.Sugar().Debugf),
		chromedp.WithErrorf(sessionLogger.Sugar().Debugf),
	}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sessionLogger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:          sessionID,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      sessionLogger,
		cfg:         cfg,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			s.logger.Debug("Native dialog opened.", zap.String("type", string(e.Type)), zap.String("message", e.Message))
			s.dialogOpen.Store(true)
		case *page.EventJavascriptDialogClosed:
			s.dialogOpen.Store(false)
		}
	})

	// The first Run starts the browser process and attaches to the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	sessionLogger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Close terminates the tab and the browser process. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	done := make(chan error, 1)
	go func() {
		// Graceful close of the browser, then release the allocator.
		done <- chromedp.Cancel(s.ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.cancel()
	s.allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// runActions executes chromedp.Actions, ensuring they respect both the session lifetime (s.ctx)
// and the incoming request context (ctx).
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

// poll calls check until it reports done or timeout elapses.
// On timeout the returned error wraps context.DeadlineExceeded.
func poll(ctx context.Context, timeout time.Duration, check func(ctx context.Context) (bool, error)) error {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		// Errors from check are retried; nodes go stale while a page is still loading.
		if ok, err := check(pollCtx); err == nil && ok {
			return nil
		}
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		case <-ticker.C:
		}
	}
}
