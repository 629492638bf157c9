// Package browsertest provides an in-memory browser.Page backed by parsed HTML,
// for exercising the login heuristics without a real browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/bulklogin/internal/browser"
)

// ErrStaleElement is returned by element methods after the page has navigated away.
var ErrStaleElement = errors.New("stale element reference")

// Site is a scripted login flow served at a single URL.
type Site struct {
	LoginHTML string
	// SubmitXPath selects the element whose click submits the form. A click on
	// any node it matches loads AfterURL and AfterHTML.
	SubmitXPath string
	AfterURL    string
	AfterHTML   string
}

// Page implements browser.Page over static documents.
//
// Element visibility follows the markup: a node is hidden when it or an
// ancestor has the hidden attribute, type="hidden", or an inline style with
// display:none or visibility:hidden. Elements with a data-click-error attribute
// fail real clicks but accept script clicks.
type Page struct {
	Sites map[string]Site

	// Failure injection.
	NavigateErr error
	SourceErr   error
	FindErr     error

	// Dialog reports an open native dialog until HandleDialog is called.
	Dialog bool
	// FrameClicks is the count returned by ClickInFrames.
	FrameClicks int

	mu          sync.Mutex
	url         string
	doc         *html.Node
	site        *Site
	generation  int
	navigations []string
	typed       map[string]string
	clicks      []string
	scripts     []string
	escapes     int
	dialogCalls []bool
	frameWords  [][]string
	framePauses []time.Duration
}

var _ browser.Page = (*Page)(nil)

// New returns a Page serving sites keyed by URL.
func New(sites map[string]Site) *Page {
	return &Page{Sites: sites, typed: make(map[string]string)}
}

func (p *Page) load(url, source string) error {
	doc, err := htmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return fmt.Errorf("failed to parse document for %s: %w", url, err)
	}
	p.url = url
	p.doc = doc
	p.generation++
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("navigation canceled: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.navigations = append(p.navigations, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	site, ok := p.Sites[url]
	if !ok {
		return fmt.Errorf("navigation failed: net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	p.site = &site
	return p.load(url, site.LoginHTML)
}

func (p *Page) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil || htmlquery.FindOne(p.doc, "//body") == nil {
		return fmt.Errorf("document not ready after %s: %w", timeout, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) query(locator string) ([]*element, error) {
	if p.FindErr != nil {
		return nil, p.FindErr
	}
	if p.doc == nil {
		return nil, nil
	}
	nodes, err := htmlquery.QueryAll(p.doc, locator)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", locator, err)
	}
	out := make([]*element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{page: p, node: n, generation: p.generation})
	}
	return out, nil
}

func (p *Page) FindAll(ctx context.Context, locator string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	found, err := p.query(locator)
	if err != nil {
		return nil, err
	}
	elements := make([]browser.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, el)
	}
	return elements, nil
}

// WaitPresent never blocks: the document is static, so a missing match is
// reported as a timeout straight away.
func (p *Page) WaitPresent(ctx context.Context, locator string, timeout time.Duration) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	found, err := p.query(locator)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("element %q not present after %s: %w", locator, timeout, context.DeadlineExceeded)
	}
	return found[0], nil
}

func (p *Page) WaitClickable(ctx context.Context, locator string, timeout time.Duration) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	found, err := p.query(locator)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || !displayed(found[0].node) || hasAttr(found[0].node, "disabled") {
		return nil, fmt.Errorf("element %q not clickable after %s: %w", locator, timeout, context.DeadlineExceeded)
	}
	return found[0], nil
}

func (p *Page) DialogOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Dialog
}

func (p *Page) HandleDialog(ctx context.Context, accept bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogCalls = append(p.dialogCalls, accept)
	if !p.Dialog {
		return errors.New("no dialog is showing")
	}
	p.Dialog = false
	return nil
}

func (p *Page) PressEscape(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escapes++
	return nil
}

func (p *Page) Execute(ctx context.Context, script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, script)
	return nil
}

func (p *Page) ClickInFrames(ctx context.Context, words []string, pause time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameWords = append(p.frameWords, words)
	p.framePauses = append(p.framePauses, pause)
	return p.FrameClicks, nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) Source(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SourceErr != nil {
		return "", p.SourceErr
	}
	if p.doc == nil {
		return "", nil
	}
	return htmlquery.OutputHTML(p.doc, true), nil
}

// submitIfMatched loads the post-submit document when n is the site's submit control.
func (p *Page) submitIfMatched(n *html.Node) error {
	if p.site == nil || p.site.SubmitXPath == "" {
		return nil
	}
	matches, err := htmlquery.QueryAll(p.doc, p.site.SubmitXPath)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m == n {
			url := p.site.AfterURL
			if url == "" {
				url = p.url
			}
			return p.load(url, p.site.AfterHTML)
		}
	}
	return nil
}

// Navigations returns every URL passed to Navigate, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Typed returns the value typed into the field with the given id or name.
func (p *Page) Typed(field string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed[field]
}

// Clicks returns the id, name or tag of every clicked element, in order. Script
// clicks are prefixed with "script:".
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *Page) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

func (p *Page) Escapes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.escapes
}

// DialogCalls returns the accept flag of every HandleDialog call.
func (p *Page) DialogCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.dialogCalls...)
}

func (p *Page) FrameWords() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.frameWords...)
}

// FramePauses returns the click pause passed to each ClickInFrames call.
func (p *Page) FramePauses() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.framePauses...)
}
