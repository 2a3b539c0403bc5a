package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// OwnerHeader carries the id of the authenticated user. The authentication
// layer in front of this service sets it; requests are trusted as given.
const OwnerHeader = "X-Owner-ID"

type ownerIDKey struct{}

func withOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

func ownerIDFrom(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerIDKey{}).(string)
	return ownerID
}

// requireOwner rejects requests that do not carry an owner id.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if ownerID == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, missingOwnerResponse)
			return
		}

		next.ServeHTTP(w, r.WithContext(withOwnerID(r.Context(), ownerID)))
	})
}
