// Package fetch wraps a single rendering session with the retry, backoff and
// rate-limit cooldown logic every page load in the pipeline goes through.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"lotwatch/internal/browser"
)

// Renderer is the rendering collaborator: it turns a URL into a parsed page
// and can discard a partial render. Implemented by *browser.Session; tests
// substitute fakes.
type Renderer interface {
	Render(ctx context.Context, url string, settle time.Duration) (*browser.Page, error)
	Reload(ctx context.Context) error
}

// Classifier decides what state a rendered page is in. Selector knowledge
// lives with the scraper that owns the page layout, not here.
type Classifier interface {
	Classify(p *browser.Page) Kind
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(*browser.Page) Kind

func (f ClassifierFunc) Classify(p *browser.Page) Kind { return f(p) }

// Policy parameterizes a gate's retry behavior. Injected by the caller so
// the listing and enrichment stages can share one gate implementation with
// different budgets.
type Policy struct {
	// SettleDelay is how long to wait after navigation for dynamic content.
	SettleDelay time.Duration
	// RetryDelay is the fixed pause between transient-failure attempts.
	RetryDelay time.Duration
	// MaxAttempts bounds the retry loop; 0 means unbounded.
	MaxAttempts int
	// Cooldown is the mandatory suspension after a rate-limit signal.
	Cooldown time.Duration
}

// Gate serializes all fetches through one rendering session, absorbing
// transient failures. Not safe for concurrent use: one gate per worker,
// matching the one-session-per-worker ownership model.
type Gate struct {
	renderer Renderer
	policy   Policy
	classify Classifier
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Gate during construction.
type Option func(*Gate)

// WithLogger sets the gate's logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// WithSleep overrides the delay function. Tests use this to skip real
// waiting while still observing cooldowns.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(g *Gate) { g.sleep = fn }
}

// NewGate wires a renderer, a policy and a classifier into a gate.
func NewGate(r Renderer, policy Policy, c Classifier, opts ...Option) *Gate {
	g := &Gate{
		renderer: r,
		policy:   policy,
		classify: c,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch loads locator until the classifier accepts the page or the retry
// budget runs out. Transient classifications are absorbed here and never
// surface; the only errors returned are Fatal, Exhausted, and context
// cancellation. A rate-limit suspension does not count against the budget.
func (g *Gate) Fetch(ctx context.Context, locator string) (*browser.Page, error) {
	if _, err := url.ParseRequestURI(locator); err != nil {
		return nil, &Error{Kind: Fatal, Locator: locator, Err: err}
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := g.renderer.Render(ctx, locator, g.policy.SettleDelay)
		attempts++

		kind := SourceError // transport failures retry like source errors
		if err == nil {
			kind = g.classify.Classify(page)
		}

		switch kind {
		case OK:
			return page, nil
		case Fatal:
			return nil, &Error{Kind: Fatal, Locator: locator, Attempts: attempts, Err: err}
		case RateLimited:
			g.logger.Warn("rate limited, suspending gate",
				"locator", locator, "cooldown", g.policy.Cooldown)
			if err := g.sleep(ctx, g.policy.Cooldown); err != nil {
				return nil, err
			}
			attempts-- // the cooldown wait is not a consumed attempt
		default:
			g.logger.Debug("transient fetch failure",
				"locator", locator, "kind", kind.String(), "attempt", attempts)
		}

		if g.policy.MaxAttempts > 0 && attempts >= g.policy.MaxAttempts {
			return nil, &Error{Kind: Exhausted, Locator: locator, Attempts: attempts, Err: err}
		}

		if kind != RateLimited {
			if err := g.sleep(ctx, g.policy.RetryDelay); err != nil {
				return nil, err
			}
		}
		if err := g.renderer.Reload(ctx); err != nil {
			g.logger.Debug("reload between attempts failed", "error", err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
