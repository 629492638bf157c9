// Package locator resolves login form controls by trying an ordered list of
// XPath candidates until one matches.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/bulklogin/internal/browser"
	"github.com/xkilldash9x/bulklogin/internal/config"
)

// Role identifies the form control being resolved.
type Role string

const (
	RoleEmail    Role = "email"
	RolePassword Role = "password"
	RoleLogin    Role = "login"
)

// ErrNoMatchingElement is matched by every NoMatchError.
var ErrNoMatchingElement = errors.New("no matching element")

const lowerCase = "translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')"

func attrContains(attr, needle string) string {
	return fmt.Sprintf("//input[contains(translate(@%s,'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'%s')]", attr, needle)
}

func textContains(tag, needle string) string {
	return fmt.Sprintf("//%s[contains(%s, '%s')]", tag, lowerCase, needle)
}

// Fallback candidates per role, tried after the row override and the configured default.
var fallbacks = map[Role][]string{
	RoleEmail: {
		"//input[@type='email']",
		attrContains("id", "email"),
		attrContains("name", "email"),
		attrContains("id", "user"),
		attrContains("name", "user"),
		"//input[@type='text']",
	},
	RolePassword: {
		"//input[@type='password']",
		attrContains("id", "pass"),
		attrContains("name", "pass"),
	},
	RoleLogin: {
		textContains("button", "giriş"),
		textContains("button", "giris"),
		textContains("button", "login"),
		textContains("button", "sign in"),
		textContains("button", "submit"),
		"//input[@type='submit']",
		textContains("span", "giriş"),
	},
}

// Fallbacks returns a copy of the fallback list for role.
func Fallbacks(role Role) []string {
	return append([]string(nil), fallbacks[role]...)
}

// DefaultFor returns the configured canonical locator for role.
func DefaultFor(role Role, defaults config.LocatorsConfig) string {
	switch role {
	case RoleEmail:
		return defaults.Email
	case RolePassword:
		return defaults.Password
	case RoleLogin:
		return defaults.Login
	}
	return ""
}

// Candidates builds the ordered candidate list for role: override (when set),
// the configured default, then the role fallbacks. Blank and duplicate entries
// are dropped, keeping the first occurrence.
func Candidates(role Role, override string, defaults config.LocatorsConfig) []string {
	list := make([]string, 0, len(fallbacks[role])+2)
	seen := make(map[string]struct{}, cap(list))
	add := func(xp string) {
		xp = strings.TrimSpace(xp)
		if xp == "" {
			return
		}
		if _, ok := seen[xp]; ok {
			return
		}
		seen[xp] = struct{}{}
		list = append(list, xp)
	}

	add(override)
	add(DefaultFor(role, defaults))
	for _, xp := range fallbacks[role] {
		add(xp)
	}
	return list
}

// NoMatchError reports that no candidate resolved. Last is the error of the
// final candidate tried.
type NoMatchError struct {
	Candidates []string
	Last       error
}

func (e *NoMatchError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("no element matched any of %d candidates", len(e.Candidates))
	}
	return fmt.Sprintf("no element matched any of %d candidates: %v", len(e.Candidates), e.Last)
}

func (e *NoMatchError) Unwrap() error { return e.Last }

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatchingElement }

// FindWithFallback waits up to timeout per candidate for a node to be present
// and returns the first hit together with the locator that matched.
func FindWithFallback(ctx context.Context, page browser.Page, candidates []string, timeout time.Duration) (browser.Element, string, error) {
	var last error
	for _, xp := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		el, err := page.WaitPresent(ctx, xp, timeout)
		if err == nil {
			return el, xp, nil
		}
		last = err
	}
	return nil, "", &NoMatchError{Candidates: candidates, Last: last}
}

// ClickFirst clicks the first candidate that resolves. Each candidate is waited
// on for clickability, then presence; a failed click is retried as a script
// click. Any failure moves on to the next candidate. It returns the locator
// that was clicked.
func ClickFirst(ctx context.Context, page browser.Page, candidates []string, timeout time.Duration) (string, error) {
	var last error
	for _, xp := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := clickCandidate(ctx, page, xp, timeout); err != nil {
			last = err
			continue
		}
		return xp, nil
	}
	return "", &NoMatchError{Candidates: candidates, Last: last}
}

func clickCandidate(ctx context.Context, page browser.Page, xp string, timeout time.Duration) error {
	el, err := page.WaitClickable(ctx, xp, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		el, err = page.WaitPresent(ctx, xp, timeout)
		if err != nil {
			return err
		}
	}
	if err := el.Click(ctx); err != nil {
		if scriptErr := el.ScriptClick(ctx); scriptErr != nil {
			return fmt.Errorf("click failed (%v) and script click failed: %w", err, scriptErr)
		}
	}
	return nil
}
