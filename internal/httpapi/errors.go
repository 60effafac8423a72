package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jkaninda/okapi"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// storeError translates storage-layer sentinel errors into HTTP responses.
// Fail-closed and not-found are deliberately indistinguishable to callers:
// a resource owned by another tenant produces the same 404 as one that does
// not exist.
func (s *Server) storeError(c *okapi.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, okapi.M{"error": domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, okapi.M{"error": domain.ErrAlreadyExists.Error()})
	case errors.Is(err, domain.ErrRelationshipViolation):
		return c.JSON(http.StatusUnprocessableEntity, okapi.M{"error": domain.ErrRelationshipViolation.Error()})
	case errors.Is(err, domain.ErrTenantHasData):
		return c.JSON(http.StatusConflict, okapi.M{"error": err.Error()})
	case errors.Is(err, domain.ErrTenantInactive):
		return c.JSON(http.StatusForbidden, okapi.M{"error": domain.ErrTenantInactive.Error()})
	case errors.Is(err, domain.ErrMissingTenant):
		// A handler reached storage without a bound tenant. The middleware
		// should make this impossible; surface it as a client error rather
		// than leaking internals.
		return c.AbortBadRequest("no tenant bound to request")
	default:
		s.logger.Error("storage error",
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("internal error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
