package popup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/bulklogin/internal/browser"
	"github.com/xkilldash9x/bulklogin/internal/browser/browsertest"
	"github.com/xkilldash9x/bulklogin/internal/config"
	"github.com/xkilldash9x/bulklogin/internal/mocks"
	"github.com/xkilldash9x/bulklogin/internal/popup"
)

func fastConfig() config.PopupConfig {
	return config.PopupConfig{SearchIframes: true, RemoveOverlays: true}
}

func steps(results []popup.StepResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Step)
	}
	return names
}

func TestDismiss_WithPage(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New(map[string]browsertest.Site{
		"https://example.com": {LoginHTML: `<html><body>
			<div id="cookie-banner"><button id="ok">Accept all</button></div>
			<div style="display:none"><button id="hiddenclose">Kabul Et</button></div>
			<input id="email">
		</body></html>`},
	})
	require.NoError(t, page.Navigate(ctx, "https://example.com"))
	page.Dialog = true
	page.FrameClicks = 2

	d := popup.New(fastConfig(), zaptest.NewLogger(t))
	results := d.Dismiss(ctx, page)

	assert.Equal(t, []string{popup.StepDialog, popup.StepConsent, popup.StepIframes, popup.StepEscape, popup.StepOverlays}, steps(results))
	for _, r := range results {
		assert.True(t, r.Handled, r.Step)
		assert.NoError(t, r.Err, r.Step)
	}

	assert.Equal(t, []bool{false}, page.DialogCalls(), "dialog is dismissed first")
	assert.Contains(t, page.Clicks(), "ok")
	assert.Contains(t, page.Clicks(), "cookie-banner")
	assert.NotContains(t, page.Clicks(), "hiddenclose")
	assert.Equal(t, [][]string{popup.FrameWords}, page.FrameWords())
	assert.Equal(t, 1, page.Escapes())
	assert.Equal(t, popup.OverlayScripts, page.Scripts())
}

func TestDismiss_FrameClicksUseClickPause(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New(map[string]browsertest.Site{
		"https://example.com": {LoginHTML: `<html><body><iframe src="/consent"></iframe></body></html>`},
	})
	require.NoError(t, page.Navigate(ctx, "https://example.com"))

	cfg := fastConfig()
	cfg.ClickPause = 30 * time.Millisecond
	popup.New(cfg, zaptest.NewLogger(t)).Dismiss(ctx, page)

	assert.Equal(t, []time.Duration{30 * time.Millisecond}, page.FramePauses())
}

func TestDismiss_OptionalStepsDisabled(t *testing.T) {
	ctx := context.Background()
	page := browsertest.New(map[string]browsertest.Site{
		"https://example.com": {LoginHTML: `<html><body><p>nothing here</p></body></html>`},
	})
	require.NoError(t, page.Navigate(ctx, "https://example.com"))

	d := popup.New(config.PopupConfig{}, zaptest.NewLogger(t))
	results := d.Dismiss(ctx, page)

	assert.Equal(t, []string{popup.StepDialog, popup.StepConsent, popup.StepEscape}, steps(results))
	assert.False(t, results[0].Handled, "no dialog was open")
	assert.False(t, results[1].Handled, "nothing to click")
	assert.Empty(t, page.Scripts())
	assert.Empty(t, page.FrameWords())
}

func TestDismiss_Failures(t *testing.T) {
	ctx := context.Background()

	page := new(mocks.MockPage)
	page.On("DialogOpen").Return(true)
	page.On("HandleDialog", mock.Anything, false).Return(errors.New("dismiss not allowed"))
	page.On("HandleDialog", mock.Anything, true).Return(nil)

	btn := new(mocks.MockElement)
	btn.On("Displayed", mock.Anything).Return(true, nil)
	btn.On("Click", mock.Anything).Return(errors.New("intercepted"))
	btn.On("ScriptClick", mock.Anything).Return(nil)
	page.On("FindAll", mock.Anything, popup.ConsentLocators[0]).Return([]browser.Element{btn}, nil)
	page.On("FindAll", mock.Anything, mock.Anything).Return(nil, nil)

	page.On("ClickInFrames", mock.Anything, popup.FrameWords, mock.Anything).Run(func(mock.Arguments) {
		panic("frame detached")
	}).Return(0, nil)
	page.On("PressEscape", mock.Anything).Return(errors.New("no focus"))
	page.On("Execute", mock.Anything, mock.Anything).Return(errors.New("script blocked"))

	d := popup.New(fastConfig(), zaptest.NewLogger(t))
	results := d.Dismiss(ctx, page)
	require.Len(t, results, 5)

	t.Run("DialogFallsBackToAccept", func(t *testing.T) {
		assert.True(t, results[0].Handled)
		page.AssertCalled(t, "HandleDialog", mock.Anything, true)
	})

	t.Run("ScriptClickFallback", func(t *testing.T) {
		assert.True(t, results[1].Handled)
		btn.AssertCalled(t, "ScriptClick", mock.Anything)
	})

	t.Run("PanicIsRecovered", func(t *testing.T) {
		assert.False(t, results[2].Handled)
		require.Error(t, results[2].Err)
		assert.Contains(t, results[2].Err.Error(), "frame detached")
	})

	t.Run("ErrorsAreReportedNotPropagated", func(t *testing.T) {
		assert.False(t, results[3].Handled)
		assert.Error(t, results[3].Err)
		assert.False(t, results[4].Handled)
		assert.Error(t, results[4].Err)
		page.AssertNumberOfCalls(t, "Execute", len(popup.OverlayScripts))
	})
}

func TestDismiss_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := new(mocks.MockPage)
	d := popup.New(config.PopupConfig{SettleDelay: 1 << 40}, zaptest.NewLogger(t))
	results := d.Dismiss(ctx, page)

	assert.Empty(t, results)
	page.AssertExpectations(t)
}
