// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which represents a shortened URL owned by a user,
// along with the error kinds shared by the store and the use cases.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a Link with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when a Link with the specified short code or id cannot be found.
	ErrLinkNotFound = errors.New("link not found")
	// ErrRetriesExhausted is returned when no free short code was found within the retry budget.
	ErrRetriesExhausted = errors.New("short code retries exhausted")
	// ErrStoreUnavailable is returned on transient persistence failures (timeouts, lost connections).
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreUnreachable accompanies ErrStoreUnavailable when the operation never reached the store,
	// so repeating it cannot apply a write twice.
	ErrStoreUnreachable = errors.New("store unreachable")
)

// Link represents a shortened URL created by a user.
type Link struct {
	ID          int64     // ID is the unique identifier of the link in the store.
	ShortCode   string    // ShortCode is the globally unique code that resolves to OriginalURL.
	OriginalURL string    // OriginalURL is the full URL the short code redirects to.
	OwnerID     string    // OwnerID identifies the user that created the link.
	ClickCount  int64     // ClickCount is the number of successful resolutions of the short code.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
}
