// Package usecase implements link creation with collision handling and
// short code resolution on top of an injected link store.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

const (
	defaultMaxCollisionRetries = 10
	defaultMaxStoreRetries     = 3
)

type linkRepository interface {
	Insert(ctx context.Context, originalURL, shortCode, ownerID string) (*entity.Link, error)
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error)
}

type codeGenerator interface {
	Generate() string
}

type options struct {
	maxCollisionRetries int
	maxStoreRetries     int
	newBackOff          func() backoff.BackOff
}

func defaultOptions() options {
	return options{
		maxCollisionRetries: defaultMaxCollisionRetries,
		maxStoreRetries:     defaultMaxStoreRetries,
		newBackOff:          defaultBackOff,
	}
}

type Option func(*options)

// WithMaxCollisionRetries sets how many candidate codes CreateLink tries before giving up.
func WithMaxCollisionRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCollisionRetries = n
		}
	}
}

// WithMaxStoreRetries sets how many times a read failing with entity.ErrStoreUnavailable is repeated.
func WithMaxStoreRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxStoreRetries = n
		}
	}
}

// WithBackOff replaces the exponential backoff used between store retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(o *options) {
		o.newBackOff = newBackOff
	}
}

type LinkUseCase struct {
	repo   linkRepository
	gen    codeGenerator
	logger *slog.Logger
	opts   options
}

func NewLinkUseCase(repo linkRepository, gen codeGenerator, logger *slog.Logger, opts ...Option) *LinkUseCase {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &LinkUseCase{
		repo:   repo,
		gen:    gen,
		logger: logger,
		opts:   o,
	}
}

// CreateLink stores originalURL under a fresh short code owned by ownerID.
// Collisions are retried with new candidates; when the budget runs out
// entity.ErrRetriesExhausted is returned. Collisions never reach the caller.
// Store failures are retried with the same candidate only when the insert
// never reached the store; a timeout is surfaced since the row may exist.
func (uc *LinkUseCase) CreateLink(ctx context.Context, ownerID, originalURL string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.CreateLink"

	for attempt := 1; attempt <= uc.opts.maxCollisionRetries; attempt++ {
		shortCode := uc.gen.Generate()

		link, err := retryUnreachable(ctx, uc.opts.newBackOff, uc.opts.maxStoreRetries, func() (*entity.Link, error) {
			return uc.repo.Insert(ctx, originalURL, shortCode, ownerID)
		})
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, entity.ErrShortCodeExists) {
			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		uc.logger.Debug("short code collision",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Int("attempt", attempt),
		)
	}

	uc.logger.Error("short code space exhausted",
		slog.String("op", op),
		slog.Int("attempts", uc.opts.maxCollisionRetries),
	)

	return nil, fmt.Errorf("%s: %w", op, entity.ErrRetriesExhausted)
}

// ListLinks returns the links created by ownerID in creation order.
func (uc *LinkUseCase) ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	const op = "usecase.LinkUseCase.ListLinks"

	links, err := retryUnavailable(ctx, uc.opts.newBackOff, uc.opts.maxStoreRetries, func() ([]*entity.Link, error) {
		return uc.repo.ListByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// GetLink returns the link behind shortCode if ownerID created it.
// Links of other owners are reported as entity.ErrLinkNotFound.
func (uc *LinkUseCase) GetLink(ctx context.Context, ownerID, shortCode string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLink"

	link, err := retryUnavailable(ctx, uc.opts.newBackOff, uc.opts.maxStoreRetries, func() (*entity.Link, error) {
		return uc.repo.FindByCode(ctx, shortCode)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if link.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link, nil
}
