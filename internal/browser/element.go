// internal/browser/element.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ErrNotInteractable is returned when typing into a node that is not displayed.
var ErrNotInteractable = errors.New("element not interactable")

// cdpElement is a node found by a Session query.
type cdpElement struct {
	session *Session
	node    *cdp.Node
}

var _ Element = (*cdpElement)(nil)

// callFunction runs fn with `this` bound to the node and decodes the by-value
// result into res when res is non-nil.
func (e *cdpElement) callFunction(ctx context.Context, fn string, res interface{}) error {
	return e.session.runActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node: %w", err)
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		result, exception, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exception != nil {
			return exception
		}
		if res == nil || result == nil || len(result.Value) == 0 {
			return nil
		}
		return json.Unmarshal(result.Value, res)
	}))
}

func (e *cdpElement) Displayed(ctx context.Context) (bool, error) {
	var visible bool
	if err := e.callFunction(ctx, jsIsDisplayed, &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (e *cdpElement) Click(ctx context.Context) error {
	// MouseClickNode scrolls the node into view before dispatching the events.
	return e.session.runActions(ctx, chromedp.MouseClickNode(e.node))
}

func (e *cdpElement) ScriptClick(ctx context.Context) error {
	return e.callFunction(ctx, jsClick, nil)
}

// interactable fails fast for hidden nodes. chromedp's query based input
// actions would wait for visibility until the context ends.
func (e *cdpElement) interactable(ctx context.Context) error {
	visible, err := e.Displayed(ctx)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("%w: <%s> is not displayed", ErrNotInteractable, e.node.LocalName)
	}
	return nil
}

func (e *cdpElement) Clear(ctx context.Context) error {
	if err := e.interactable(ctx); err != nil {
		return err
	}
	return e.callFunction(ctx, jsClear, nil)
}

func (e *cdpElement) SendKeys(ctx context.Context, text string) error {
	if err := e.interactable(ctx); err != nil {
		return err
	}
	return e.session.runActions(ctx, chromedp.KeyEventNode(e.node, text))
}

func (e *cdpElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.callFunction(ctx, jsText, &text); err != nil {
		return "", err
	}
	return text, nil
}
