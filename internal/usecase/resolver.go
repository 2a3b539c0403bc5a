package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type linkFinder interface {
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)
}

type clickCounter interface {
	IncrementClicks(ctx context.Context, id int64) error
}

// Resolver turns short codes into their target URLs and counts the visits.
type Resolver struct {
	finder  linkFinder
	counter clickCounter
	logger  *slog.Logger
	opts    options
}

// NewResolver builds a Resolver. finder may be a cache in front of the store;
// counter must be the store itself.
func NewResolver(finder linkFinder, counter clickCounter, logger *slog.Logger, opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Resolver{
		finder:  finder,
		counter: counter,
		logger:  logger,
		opts:    o,
	}
}

// Resolve returns the original URL behind shortCode and records one click.
//
// The click is recorded once per call and never retried. A failed increment
// is logged and the URL is still returned, so the visitor gets redirected
// even when the counter falls behind.
func (r *Resolver) Resolve(ctx context.Context, shortCode string) (string, error) {
	const op = "usecase.Resolver.Resolve"

	link, err := retryUnavailable(ctx, r.opts.newBackOff, r.opts.maxStoreRetries, func() (*entity.Link, error) {
		return r.finder.FindByCode(ctx, shortCode)
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	// The visitor is redirected regardless, so a client hanging up must not drop the click.
	if err := r.counter.IncrementClicks(context.WithoutCancel(ctx), link.ID); err != nil {
		r.logger.Error("failed to record click",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Int64("link_id", link.ID),
			slog.Any("err", err),
		)
	}

	return link.OriginalURL, nil
}
