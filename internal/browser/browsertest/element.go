package browsertest

import (
	"context"
	"errors"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/bulklogin/internal/browser"
)

type element struct {
	page       *Page
	node       *html.Node
	generation int
}

func (e *element) stale() bool {
	return e.generation != e.page.generation
}

func (e *element) key() string {
	for _, attr := range []string{"id", "name"} {
		if v := htmlquery.SelectAttr(e.node, attr); v != "" {
			return v
		}
	}
	return e.node.Data
}

func (e *element) Displayed(ctx context.Context) (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return false, ErrStaleElement
	}
	return displayed(e.node), nil
}

func (e *element) Click(ctx context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return ErrStaleElement
	}
	if !displayed(e.node) {
		return errors.New("element not interactable")
	}
	if hasAttr(e.node, "data-click-error") {
		return errors.New("element click intercepted")
	}
	e.page.clicks = append(e.page.clicks, e.key())
	return e.page.submitIfMatched(e.node)
}

func (e *element) ScriptClick(ctx context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return ErrStaleElement
	}
	e.page.clicks = append(e.page.clicks, "script:"+e.key())
	return e.page.submitIfMatched(e.node)
}

func (e *element) Clear(ctx context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return ErrStaleElement
	}
	if !displayed(e.node) {
		return browser.ErrNotInteractable
	}
	e.page.typed[e.key()] = ""
	return nil
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return ErrStaleElement
	}
	if !displayed(e.node) {
		return browser.ErrNotInteractable
	}
	e.page.typed[e.key()] += text
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.stale() {
		return "", ErrStaleElement
	}
	return strings.TrimSpace(htmlquery.InnerText(e.node)), nil
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func displayed(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if hasAttr(cur, "hidden") {
			return false
		}
		if cur.Data == "input" && strings.EqualFold(htmlquery.SelectAttr(cur, "type"), "hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(htmlquery.SelectAttr(cur, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}
