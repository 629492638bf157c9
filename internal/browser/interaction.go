// internal/browser/interaction.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// Navigate loads the specified URL and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	// Combine session context and the operational context.
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	// Apply a specific timeout for the navigation action itself.
	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		// Check if the overall operation or session was canceled.
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		// Check if the specific navigation context timed out.
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *Session) WaitReady(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.runActions(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("document not ready after %s: %w", timeout, err)
	}
	return nil
}

func (s *Session) FindAll(ctx context.Context, locator string) ([]Element, error) {
	var nodes []*cdp.Node
	// AtLeast(0) returns immediately when nothing matches.
	if err := s.runActions(ctx, chromedp.Nodes(locator, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %q failed: %w", locator, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &cdpElement{session: s, node: n})
	}
	return elements, nil
}

func (s *Session) WaitPresent(ctx context.Context, locator string, timeout time.Duration) (Element, error) {
	var found Element
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		elements, err := s.FindAll(ctx, locator)
		if err != nil || len(elements) == 0 {
			return false, err
		}
		found = elements[0]
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("element %q not present: %w", locator, err)
	}
	return found, nil
}

func (s *Session) WaitClickable(ctx context.Context, locator string, timeout time.Duration) (Element, error) {
	var found Element
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		elements, err := s.FindAll(ctx, locator)
		if err != nil || len(elements) == 0 {
			return false, err
		}
		el := elements[0].(*cdpElement)
		if visible, err := el.Displayed(ctx); err != nil || !visible {
			return false, err
		}
		var enabled bool
		if err := el.callFunction(ctx, jsIsEnabled, &enabled); err != nil || !enabled {
			return false, err
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("element %q not clickable: %w", locator, err)
	}
	return found, nil
}

func (s *Session) DialogOpen() bool {
	return s.dialogOpen.Load()
}

func (s *Session) HandleDialog(ctx context.Context, accept bool) error {
	if err := s.runActions(ctx, page.HandleJavaScriptDialog(accept)); err != nil {
		return fmt.Errorf("failed to handle native dialog: %w", err)
	}
	s.dialogOpen.Store(false)
	return nil
}

func (s *Session) PressEscape(ctx context.Context) error {
	return s.runActions(ctx, chromedp.KeyEvent(kb.Escape))
}

func (s *Session) Execute(ctx context.Context, script string) error {
	if err := s.runActions(ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

func (s *Session) ClickInFrames(ctx context.Context, words []string, pause time.Duration) (int, error) {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		// Words are embedded in single-quoted XPath literals.
		lowered = append(lowered, strings.ReplaceAll(strings.ToLower(w), "'", ""))
	}
	data, err := json.Marshal(lowered)
	if err != nil {
		return 0, err
	}

	var clicked int
	script := fmt.Sprintf(jsClickInFrames, data, pause.Milliseconds())
	if err := s.runActions(ctx, chromedp.Evaluate(script, &clicked, awaitPromise)); err != nil {
		return 0, fmt.Errorf("iframe search failed: %w", err)
	}
	return clicked, nil
}

// awaitPromise makes Evaluate wait for an async script to settle.
func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (s *Session) Source(ctx context.Context) (string, error) {
	var html string
	if err := s.runActions(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}
