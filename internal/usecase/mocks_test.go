package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Insert(ctx context.Context, originalURL, shortCode, ownerID string) (*entity.Link, error) {
	args := r.Called(ctx, originalURL, shortCode, ownerID)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) FindByCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	args := r.Called(ctx, ownerID)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (r *MockLinkRepository) IncrementClicks(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (g *MockCodeGenerator) Generate() string {
	args := g.Called()
	return args.String(0)
}

// sequenceGenerator hands out codes in order and repeats the last one when exhausted.
type sequenceGenerator struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.codes[g.next]
	if g.next < len(g.codes)-1 {
		g.next++
	}
	return code
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noBackOff() Option {
	return WithBackOff(func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	})
}
