// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/bulklogin/internal/browser"
)

// -- Browser Mocks --

// MockPage mocks the browser.Page interface.
type MockPage struct {
	mock.Mock
}

var _ browser.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) WaitReady(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

func (m *MockPage) FindAll(ctx context.Context, locator string) ([]browser.Element, error) {
	args := m.Called(ctx, locator)
	var elements []browser.Element
	if v := args.Get(0); v != nil {
		elements = v.([]browser.Element)
	}
	return elements, args.Error(1)
}

func (m *MockPage) WaitPresent(ctx context.Context, locator string, timeout time.Duration) (browser.Element, error) {
	args := m.Called(ctx, locator, timeout)
	return element(args.Get(0)), args.Error(1)
}

func (m *MockPage) WaitClickable(ctx context.Context, locator string, timeout time.Duration) (browser.Element, error) {
	args := m.Called(ctx, locator, timeout)
	return element(args.Get(0)), args.Error(1)
}

func (m *MockPage) DialogOpen() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPage) HandleDialog(ctx context.Context, accept bool) error {
	args := m.Called(ctx, accept)
	return args.Error(0)
}

func (m *MockPage) PressEscape(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPage) Execute(ctx context.Context, script string) error {
	args := m.Called(ctx, script)
	return args.Error(0)
}

func (m *MockPage) ClickInFrames(ctx context.Context, words []string, pause time.Duration) (int, error) {
	args := m.Called(ctx, words, pause)
	return args.Int(0), args.Error(1)
}

func (m *MockPage) Location(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Source(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockElement mocks the browser.Element interface.
type MockElement struct {
	mock.Mock
}

var _ browser.Element = (*MockElement)(nil)

func (m *MockElement) Displayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) Click(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockElement) ScriptClick(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockElement) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockElement) SendKeys(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// element converts a mock return value, allowing a nil placeholder.
func element(v interface{}) browser.Element {
	if v == nil {
		return nil
	}
	return v.(browser.Element)
}
