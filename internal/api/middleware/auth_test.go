package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cf_stats/internal/common/security"
	"cf_stats/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(auth *jwtauth.JWTAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(auth))
	r.With(Authenticator, AdminOnly).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		subject, _ := GetSubjectFromContext(r.Context())
		w.Write([]byte(subject))
	})
	return r
}

func TestAdminRouteAccess(t *testing.T) {
	auth := security.NewTokenAuth([]byte("test-secret"))
	adminToken, err := security.IssueToken(auth, "root", model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewerToken, err := security.IssueToken(auth, "someone", "viewer", time.Hour)
	require.NoError(t, err)
	expired, err := security.IssueToken(auth, "root", model.RoleAdmin, -time.Hour)
	require.NoError(t, err)

	tests := map[string]struct {
		header string
		want   int
	}{
		"no token":      {header: "", want: http.StatusUnauthorized},
		"garbage token": {header: "Bearer nope", want: http.StatusUnauthorized},
		"expired token": {header: "Bearer " + expired, want: http.StatusUnauthorized},
		"non admin":     {header: "Bearer " + viewerToken, want: http.StatusForbidden},
		"admin":         {header: "Bearer " + adminToken, want: http.StatusOK},
	}
	h := protectedRouter(auth)
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "root", rec.Body.String())
			}
		})
	}
}
