package middleware

import (
	"net/http"

	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	userNameHeader = "X-User-Name"

	maxActorHeaderLen = 128
)

// Actor copies the caller identity set by the upstream gateway into the
// request context. Both headers are optional.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := validators.SanitizeString(r.Header.Get(userIDHeader), maxActorHeaderLen); userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			if userName := validators.SanitizeString(r.Header.Get(userNameHeader), maxActorHeaderLen); userName != "" {
				ctx = WithUserName(ctx, userName)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
