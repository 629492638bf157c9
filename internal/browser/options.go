// internal/browser/options.go
package browser

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/bulklogin/internal/config"
)

const (
	defaultWindowWidth  = 1920
	defaultWindowHeight = 1080
)

// allocatorFlag is a single command line switch passed to the browser process.
type allocatorFlag struct {
	Name  string
	Value interface{}
}

// allocatorFlags resolves the browser switches for cfg. Later entries win over
// earlier ones with the same name, matching how chromedp applies flags.
func allocatorFlags(cfg config.BrowserConfig) []allocatorFlag {
	width, height := defaultWindowWidth, defaultWindowHeight
	if w, ok := cfg.Viewport["width"]; ok && w > 0 {
		width = w
	}
	if h, ok := cfg.Viewport["height"]; ok && h > 0 {
		height = h
	}

	flags := []allocatorFlag{
		{"headless", cfg.Headless},
		{"disable-gpu", true},
		{"start-maximized", true},
		{"window-size", fmt.Sprintf("%d,%d", width, height)},
	}
	if cfg.Headless {
		flags[0] = allocatorFlag{"headless", "new"}
	}

	if cfg.DisableCache {
		flags = append(flags,
			allocatorFlag{"disk-cache-size", "0"},
			allocatorFlag{"media-cache-size", "0"},
			allocatorFlag{"disable-cache", true},
		)
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags,
			allocatorFlag{"ignore-certificate-errors", true},
			allocatorFlag{"allow-insecure-localhost", true},
		)
	}

	// Flags required for running inside containers (e.g. Docker on Linux).
	if runtime.GOOS == "linux" {
		flags = append(flags,
			allocatorFlag{"no-sandbox", true},
			allocatorFlag{"disable-dev-shm-usage", true},
		)
	}

	// Custom arguments from config.yaml, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, allocatorFlag{name, parts[1]})
		} else {
			flags = append(flags, allocatorFlag{name, true})
		}
	}
	return flags
}

// DefaultAllocatorOptions builds the exec allocator options for the shared browser.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
