package browser

import (
	"context"
	"time"
)

// Element is a handle to a node found on the current page. Handles go stale when
// the page navigates or the node is removed; methods then return an error.
type Element interface {
	// Displayed reports whether the node is attached, rendered and not hidden.
	Displayed(ctx context.Context) (bool, error)
	// Click dispatches a real mouse click at the node's position.
	Click(ctx context.Context) error
	// ScriptClick calls the node's click() method from page script.
	ScriptClick(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// Page is the browser contract used by the login heuristics. Locators are XPath
// expressions evaluated against the main document.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady waits until the document has a body element.
	WaitReady(ctx context.Context, timeout time.Duration) error
	// FindAll returns every node currently matching the locator without waiting.
	FindAll(ctx context.Context, locator string) ([]Element, error)
	// WaitPresent waits up to timeout for the locator to match a node.
	WaitPresent(ctx context.Context, locator string, timeout time.Duration) (Element, error)
	// WaitClickable waits up to timeout for a visible, enabled match.
	WaitClickable(ctx context.Context, locator string, timeout time.Duration) (Element, error)

	// DialogOpen reports whether a native alert/confirm/prompt is showing.
	DialogOpen() bool
	// HandleDialog closes the open native dialog, accepting or dismissing it.
	HandleDialog(ctx context.Context, accept bool) error

	PressEscape(ctx context.Context) error
	Execute(ctx context.Context, script string) error
	// ClickInFrames clicks displayed buttons and links whose text contains one of
	// words inside same-origin iframes, waiting pause after each click, and
	// returns how many were clicked. The main document remains the active context.
	ClickInFrames(ctx context.Context, words []string, pause time.Duration) (int, error)

	Location(ctx context.Context) (string, error)
	// Source returns the serialized HTML of the current document.
	Source(ctx context.Context) (string, error)
}
