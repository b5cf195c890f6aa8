package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
)

// Chain implements Provider by trying multiple providers in order.
// The first successful provider wins; if all fail, returns an aggregate error.
// A provider that answers with a fatal APIError is skipped from then on.
type Chain struct {
	providers []Provider
	logger    *slog.Logger

	mu       sync.Mutex
	disabled map[int]error
}

// NewChain creates a provider chain that tries providers in order.
// At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}

	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "tts.chain"),
		disabled:  make(map[int]error),
	}, nil
}

// NewChainWithLogger creates a provider chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "tts.chain")
	return chain, nil
}

// Synthesize tries each provider until one succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	var errs []error

	for i, p := range c.providers {
		if err := c.disabledErr(i); err != nil {
			errs = append(errs, err)
			continue
		}

		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded",
					"provider_index", i,
					"chars", len(text),
				)
			}
			return result, nil
		}

		errs = append(errs, err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Fatal() {
			c.disable(i, err)
		}
		c.logger.Warn("provider failed, trying next",
			"provider_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

func (c *Chain) disabledErr(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[i]
}

func (c *Chain) disable(i int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.disabled[i]; ok {
		return
	}
	c.disabled[i] = err
	c.logger.Error("provider disabled", "provider_index", i, "error", err)
}

// Active returns how many providers are still being tried.
func (c *Chain) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.providers) - len(c.disabled)
}

// Health returns nil if at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var healthy int
	var errs error

	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			healthy++
		}
	}

	if healthy == 0 {
		return fmt.Errorf("all %d providers unhealthy: %w", len(c.providers), errs)
	}

	c.logger.Debug("health check complete",
		"healthy", healthy,
		"total", len(c.providers),
	)
	return nil
}

// Close closes all providers.
func (c *Chain) Close() error {
	var err error
	for _, p := range c.providers {
		err = multierr.Append(err, p.Close())
	}
	return err
}

// Providers returns the list of providers in the chain.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// ChainError aggregates errors from all providers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "tts chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: all %d providers failed: %v", len(e.Errors), multierr.Combine(e.Errors...))
}

// Is reports ErrAllProvidersFailed for any non-empty chain failure.
func (e *ChainError) Is(target error) bool {
	return target == ErrAllProvidersFailed && len(e.Errors) > 0
}

// Unwrap returns the individual provider errors.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

var _ Provider = (*Chain)(nil)
