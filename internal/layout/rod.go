package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/process"
)

// Browser sentinel errors.
var (
	ErrBrowserConnect = errors.New("browser connection failed")
	ErrPageLoad       = errors.New("failed to load page")
)

const measureScript = `() => JSON.stringify(
  Array.from(document.getElementById("measure").children).map((el) => {
    const style = getComputedStyle(el);
    return el.getBoundingClientRect().height +
      parseFloat(style.marginTop || "0") + parseFloat(style.marginBottom || "0");
  })
)`

// RodMeasurer measures blocks in headless Chrome. Each call renders the
// blocks into a standalone single-column page at the requested viewport and
// reads back their box heights. The browser starts on first use; rod
// downloads Chromium when none is installed.
type RodMeasurer struct {
	css     string
	timeout time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodMeasurer creates a measurer that styles its pages with css.
func NewRodMeasurer(css string, timeout time.Duration, log *zap.Logger) *RodMeasurer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RodMeasurer{css: css, timeout: timeout, log: log}
}

// ensureBrowser lazily connects to the browser.
func (m *RodMeasurer) ensureBrowser() error {
	if m.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	m.launcher = l

	m.browser = rod.New().ControlURL(u)
	if err := m.browser.Connect(); err != nil {
		m.browser = nil
		m.killLauncher()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	m.log.Debug("browser connected", zap.Int("pid", l.PID()))
	return nil
}

// Close releases browser resources. Chrome helper processes that outlive
// the browser are killed with their process group.
func (m *RodMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.killLauncher()
	return err
}

// killLauncher stops the launched Chrome. Callers hold m.mu.
func (m *RodMeasurer) killLauncher() {
	if m.launcher == nil {
		return
	}
	pid := m.launcher.PID()
	m.launcher.Kill()
	if pid > 0 {
		process.KillProcessGroup(pid)
	}
	m.launcher = nil
}

// Measure implements Measurer.
func (m *RodMeasurer) Measure(ctx context.Context, req Request) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks, vp := req.Blocks, req.Viewport
	if len(blocks) == 0 {
		return nil, nil
	}

	page, err := m.measurePage(blocks, req.Base)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := fileutil.WriteTempFile(page, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureBrowser(); err != nil {
		return nil, err
	}

	p, err := m.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer p.Close()

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p = p.Context(ctx).Timeout(timeout)

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             int(vp.Width),
		Height:            int(vp.Height),
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	url, err := fileutil.FileURL(path)
	if err != nil {
		return nil, err
	}
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	res, err := p.Eval(measureScript)
	if err != nil {
		return nil, fmt.Errorf("evaluating heights: %w", err)
	}
	var heights []float64
	if err := json.Unmarshal([]byte(res.Value.Str()), &heights); err != nil {
		return nil, fmt.Errorf("decoding heights: %w", err)
	}
	if len(heights) != len(blocks) {
		return nil, fmt.Errorf("page has %d children for %d blocks", len(heights), len(blocks))
	}
	return heights, nil
}

// measurePage writes the blocks into a bare slide. The page itself lives in
// a temp file, so base must be set for relative images to load.
func (m *RodMeasurer) measurePage(blocks []*Block, base string) (string, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	if base != "" {
		b.WriteString(`<base href="`)
		b.WriteString(html.EscapeString(base))
		b.WriteString(`">`)
	}
	b.WriteString("<style>")
	b.WriteString(m.css)
	b.WriteString("</style></head><body>\n")
	b.WriteString(`<div class="mdpress-root"><div class="mdpress-deck"><section class="slide active"><div class="slide-content" id="measure">`)
	for _, blk := range blocks {
		if err := html.Render(&b, blk.Node); err != nil {
			return "", fmt.Errorf("rendering block: %w", err)
		}
	}
	b.WriteString("</div></section></div></div>\n</body></html>\n")
	return b.String(), nil
}
