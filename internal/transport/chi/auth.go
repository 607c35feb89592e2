package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/cranach-archive/lighttable/internal/logger"
)

// publicPaths are reachable without a session key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware guards the session API with static bearer keys.
// Empty keys are ignored; with no keys left the API is open.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				reject(w, r, "missing authorization header")
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				reject(w, r, "authorization header must use Bearer scheme")
				return
			}
			if !knownKey(keys, token) {
				reject(w, r, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, t) == 1 {
			found = true
		}
	}
	return found
}

func reject(w http.ResponseWriter, r *http.Request, msg string) {
	logpkg.FromContext(r.Context()).Info("session api request rejected",
		zap.String("path", r.URL.Path),
		zap.String("reason", msg),
	)
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}
