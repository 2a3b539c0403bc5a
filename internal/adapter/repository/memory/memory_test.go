package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

func TestLinkRepository_Insert(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo := NewLinkRepository()

		_, err := repo.Insert(context.Background(), "https://example.com", "abc123", "1")
		require.NoError(t, err)

		link, err := repo.Insert(context.Background(), "https://other.com", "abc123", "2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrShortCodeExists)
		assert.Nil(t, link)
	})

	t.Run("canceled context", func(t *testing.T) {
		repo := NewLinkRepository()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		link, err := repo.Insert(ctx, "https://example.com", "abc123", "1")

		assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, link)
	})

	t.Run("success", func(t *testing.T) {
		repo := NewLinkRepository()

		link, err := repo.Insert(context.Background(), "https://example.com", "abc123", "1")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), link.ID)
		assert.Equal(t, "abc123", link.ShortCode)
		assert.Equal(t, "https://example.com", link.OriginalURL)
		assert.Equal(t, "1", link.OwnerID)
		assert.Zero(t, link.ClickCount)
		assert.False(t, link.CreatedAt.IsZero())
	})

	t.Run("concurrent inserts of the same code", func(t *testing.T) {
		repo := NewLinkRepository()

		const callers = 50
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				_, err := repo.Insert(context.Background(), fmt.Sprintf("https://example.com/%d", i), "same00", "1")
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
	})
}

func TestLinkRepository_FindByCode(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo := NewLinkRepository()

		link, err := repo.FindByCode(context.Background(), "zzzzzz")

		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.Nil(t, link)
	})

	t.Run("success", func(t *testing.T) {
		repo := NewLinkRepository()
		created, err := repo.Insert(context.Background(), "https://example.com", "abc123", "1")
		require.NoError(t, err)

		link, err := repo.FindByCode(context.Background(), "abc123")

		assert.NoError(t, err)
		assert.Equal(t, created, link)
	})

	t.Run("returned link is a copy", func(t *testing.T) {
		repo := NewLinkRepository()
		_, err := repo.Insert(context.Background(), "https://example.com", "abc123", "1")
		require.NoError(t, err)

		link, err := repo.FindByCode(context.Background(), "abc123")
		require.NoError(t, err)
		link.ClickCount = 100

		again, err := repo.FindByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Zero(t, again.ClickCount)
	})
}

func TestLinkRepository_ListByOwner(t *testing.T) {
	repo := NewLinkRepository()
	ctx := context.Background()

	for i, owner := range []string{"1", "2", "1", "1", "2"} {
		_, err := repo.Insert(ctx, fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("code%02d", i), owner)
		require.NoError(t, err)
	}

	t.Run("insertion order", func(t *testing.T) {
		links, err := repo.ListByOwner(ctx, "1")

		assert.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "code00", links[0].ShortCode)
		assert.Equal(t, "code02", links[1].ShortCode)
		assert.Equal(t, "code03", links[2].ShortCode)
		for _, link := range links {
			assert.Equal(t, "1", link.OwnerID)
		}
	})

	t.Run("unknown owner", func(t *testing.T) {
		links, err := repo.ListByOwner(ctx, "3")

		assert.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestLinkRepository_IncrementClicks(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo := NewLinkRepository()

		err := repo.IncrementClicks(context.Background(), 42)

		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
	})

	t.Run("no lost updates", func(t *testing.T) {
		repo := NewLinkRepository()
		link, err := repo.Insert(context.Background(), "https://example.com", "abc123", "1")
		require.NoError(t, err)

		const workers, perWorker = 16, 250
		var wg sync.WaitGroup

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					assert.NoError(t, repo.IncrementClicks(context.Background(), link.ID))
				}
			}()
		}
		wg.Wait()

		got, err := repo.FindByCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(workers*perWorker), got.ClickCount)
	})
}
