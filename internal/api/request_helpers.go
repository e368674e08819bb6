package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/domain"
)

// getIdentityFromContext extracts the authenticated identity from the request
// context. The identity is placed in the context by the authentication
// middleware.
func getIdentityFromContext(r *http.Request) (shared.Identity, bool) {
	return shared.IdentityFromContext(r.Context())
}

// requireIdentity extracts the authenticated identity or writes a 401
// response. Returns false when the response has already been written.
func requireIdentity(w http.ResponseWriter, r *http.Request) (shared.Identity, bool) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Identity not found in request context")
		return shared.Identity{}, false
	}
	return identity, true
}

// getPathDate extracts and validates a YYYY-MM-DD date from the URL path.
func getPathDate(r *http.Request, paramName string) (domain.DateKey, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return "", domain.NewValidationError(paramName, "is required", domain.ErrInvalidDateKey)
	}
	return domain.ParseDateKey(pathParam)
}

// getPathItemID extracts a non-empty item identifier from the URL path.
func getPathItemID(r *http.Request, paramName string) (string, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return "", domain.ErrEmptyItemID
	}
	return pathParam, nil
}
