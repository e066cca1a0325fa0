package middleware

import (
	"net/http"

	"github.com/mkravets/valvecalc-backend/pkg/ctxutil"
)

// Admin returns middleware that ends the request with 403 unless the
// context actor holds an admin role. Must run after Auth.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ctxutil.ActorFromCtx(r.Context())
		if !ok || !actor.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
