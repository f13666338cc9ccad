package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monadflip/flip-monitor/presenter/http/render"
)

type ctxKey int

const addressCtxKey ctxKey = iota

var addressRe = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// GetAddressMiddleware validates the {address} route parameter and stores its
// lowercase form in the request context. Storage keys all addresses in
// lowercase, so handlers never see a checksummed variant.
func GetAddressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")

		if !addressRe.MatchString(address) {
			render.JSON(w, r, http.StatusBadRequest, map[string]string{
				"error": "Invalid address",
			})
			return
		}

		ctx := context.WithValue(r.Context(), addressCtxKey, strings.ToLower(address))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AddressFromContext(ctx context.Context) string {
	if address, ok := ctx.Value(addressCtxKey).(string); ok {
		return address
	}
	return ""
}
