package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified access token. It runs
// after jwtauth.Verifier, which only records the verification result.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Missing access token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.Unauthorized(w, "Invalid token type")
			return
		}
		if userID, _ := claims["user_id"].(string); userID == "" {
			response.Unauthorized(w, "Invalid token subject")
			return
		}

		next.ServeHTTP(w, r)
	})
}
