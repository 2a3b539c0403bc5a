// Package memory provides a Link store kept in process memory.
// It honors the same contract as the PostgreSQL store and is meant for
// single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type LinkRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*entity.Link
	byCode  map[string]*entity.Link
	byOwner map[string][]int64
	now     func() time.Time
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		byID:    make(map[int64]*entity.Link),
		byCode:  make(map[string]*entity.Link),
		byOwner: make(map[string][]int64),
		now:     time.Now,
	}
}

func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w: %w", op, entity.ErrStoreUnavailable, entity.ErrStoreUnreachable, err)
	}
	return nil
}

func (r *LinkRepository) Insert(ctx context.Context, originalURL, shortCode, ownerID string) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.Insert"

	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[shortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.nextID++
	link := &entity.Link{
		ID:          r.nextID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		OwnerID:     ownerID,
		CreatedAt:   r.now().UTC(),
	}

	r.byID[link.ID] = link
	r.byCode[shortCode] = link
	r.byOwner[ownerID] = append(r.byOwner[ownerID], link.ID)

	clone := *link
	return &clone, nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.FindByCode"

	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	clone := *link
	return &clone, nil
}

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.ListByOwner"

	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOwner[ownerID]
	links := make([]*entity.Link, 0, len(ids))

	for _, id := range ids {
		clone := *r.byID[id]
		links = append(links, &clone)
	}

	return links, nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, id int64) error {
	const op = "adapter.repository.memory.LinkRepository.IncrementClicks"

	if err := checkContext(ctx, op); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link.ClickCount++

	return nil
}
