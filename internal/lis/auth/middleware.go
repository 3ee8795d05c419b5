package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/httputil"
)

// Middleware validates the Authorization header and attaches the
// authenticated actor to the request context.
func Middleware(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := manager.ValidateToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := actor.WithActor(r.Context(), &actor.Actor{
				ID:        strconv.FormatInt(claims.UserID, 10),
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
				Email:     claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
