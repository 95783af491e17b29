package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"DeliveryStore/pkg/kit"
)

const (
	// HeaderUserID is set by the gateway from a verified access token.
	HeaderUserID      = "X-User-Id"
	HeaderCartSession = "X-Cart-Session"
)

type ctxKey string

const ownerKey ctxKey = "cart_owner"

func OwnerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ownerKey).(string)
	return v, ok
}

// RequireOwner resolves whose cart a request addresses: a signed-in
// customer, or a guest session id handed out by POST /cart/session.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(r)
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing cart session", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func resolveOwner(r *http.Request) (string, bool) {
	if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
		return "user:" + uid, true
	}

	sid, err := uuid.Parse(strings.TrimSpace(r.Header.Get(HeaderCartSession)))
	if err != nil {
		return "", false
	}
	return "guest:" + sid.String(), true
}
