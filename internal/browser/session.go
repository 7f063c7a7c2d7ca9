// Package browser owns the chromedp rendering sessions. One allocator backs
// a fixed set of tab contexts; each Session is handed to exactly one worker
// for the life of the process and is never shared or pooled dynamically.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"lotwatch/internal/logging"
)

// Pool holds one browser process and a fixed number of tab sessions.
type Pool struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	sessions    []*Session
	logger      *slog.Logger
}

// NewPool starts a headless browser with n tabs. The pool must be closed on
// every exit path; sessions are invalid afterwards.
func NewPool(ctx context.Context, n int, timeout time.Duration) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("browser: pool size must be at least 1, got %d", n)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	p := &Pool{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		logger:      logging.New("browser"),
	}

	for i := 0; i < n; i++ {
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		// Force tab creation now so a broken browser install fails fast
		// instead of mid-harvest.
		if err := chromedp.Run(tabCtx); err != nil {
			tabCancel()
			p.Close()
			return nil, fmt.Errorf("browser: start tab %d: %w", i, err)
		}
		p.sessions = append(p.sessions, &Session{
			ctx:     tabCtx,
			cancel:  tabCancel,
			timeout: timeout,
		})
	}

	p.logger.Info("browser pool ready", "tabs", n)
	return p, nil
}

// Size returns the number of sessions.
func (p *Pool) Size() int { return len(p.sessions) }

// Session returns tab i. Callers own their session exclusively.
func (p *Pool) Session(i int) *Session { return p.sessions[i] }

// Close tears down all tabs and the browser process.
func (p *Pool) Close() {
	for _, s := range p.sessions {
		s.cancel()
	}
	p.allocCancel()
}

// Session is one browser tab. Not safe for concurrent use; each worker owns
// exactly one.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// Render navigates to url, waits settle for dynamic content, and returns a
// parsed snapshot of the DOM. The whole call is bounded by the session
// timeout and by ctx.
func (s *Session) Render(ctx context.Context, url string, settle time.Duration) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()
	// Canceling the run context aborts this navigation only; the tab survives.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return ParsePage(html)
}

// Reload reloads the current document, discarding any partial render.
func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(s.ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}
