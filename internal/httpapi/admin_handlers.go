package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// TenantRequest is the request body for creating a tenant.
type TenantRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"` // Derived from Name when empty.
	Region string `json:"region,omitempty"`
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantReportRow is one line of the cross-tenant document report.
type TenantReportRow struct {
	TenantID  string `json:"tenant_id"`
	Documents int64  `json:"documents"`
}

// PurgeResponse reports how many rows a purge removed.
type PurgeResponse struct {
	Removed int64 `json:"removed"`
}

func toTenantResponse(t *domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Active:    t.Active,
		Region:    t.Region,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *Server) registerAdminRoutes(g *okapi.Group) {
	g.Post("/tenants", s.handleTenantCreate,
		okapi.DocSummary("Provision a tenant"),
		okapi.DocTags("Admin"),
		okapi.DocRequestBody(TenantRequest{}),
		okapi.DocResponse(http.StatusCreated, TenantResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
	)
	g.Get("/tenants", s.handleTenantList,
		okapi.DocSummary("List all tenants"),
		okapi.DocTags("Admin"),
		okapi.DocResponse([]TenantResponse{}),
	)
	g.Get("/tenants/{id}", s.handleTenantGet,
		okapi.DocSummary("Get a tenant by ID"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("id", "string", "Tenant ID (UUID)"),
		okapi.DocResponse(TenantResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Post("/tenants/{id}/activate", s.handleTenantActivate,
		okapi.DocSummary("Reactivate a tenant"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("id", "string", "Tenant ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Post("/tenants/{id}/deactivate", s.handleTenantDeactivate,
		okapi.DocSummary("Deactivate a tenant (requests are refused, data stays)"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("id", "string", "Tenant ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Post("/tenants/{id}/purge", s.handleTenantPurge,
		okapi.DocSummary("Delete every row owned by a tenant"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("id", "string", "Tenant ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Delete("/tenants/{id}", s.handleTenantDelete,
		okapi.DocSummary("Delete a tenant record (fails while data remains)"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("id", "string", "Tenant ID (UUID)"),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Get("/reports/documents", s.handleDocumentReport,
		okapi.DocSummary("Document counts per tenant"),
		okapi.DocTags("Admin"),
		okapi.DocResponse([]TenantReportRow{}),
	)
	g.Post("/purge-deleted", s.handlePurgeDeleted,
		okapi.DocSummary("Hard-delete soft-deleted rows past retention"),
		okapi.DocTags("Admin"),
		okapi.DocResponse(PurgeResponse{}),
	)
}

func (s *Server) handleTenantCreate(c *okapi.Context) error {
	var req TenantRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	tn := &domain.Tenant{
		Name:   req.Name,
		Slug:   req.Slug,
		Region: req.Region,
		Active: true,
	}
	if err := s.store.Tenants().Create(c.Context(), tn); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toTenantResponse(tn))
}

func (s *Server) handleTenantList(c *okapi.Context) error {
	tenants, err := s.store.Tenants().List(c.Context())
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, toTenantResponse(&tenants[i]))
	}
	return c.OK(out)
}

func (s *Server) handleTenantGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tenant ID")
	}
	tn, err := s.store.Tenants().Get(c.Context(), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toTenantResponse(tn))
}

func (s *Server) handleTenantActivate(c *okapi.Context) error {
	return s.setTenantActive(c, true)
}

func (s *Server) handleTenantDeactivate(c *okapi.Context) error {
	return s.setTenantActive(c, false)
}

func (s *Server) setTenantActive(c *okapi.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tenant ID")
	}
	if err := s.store.Tenants().SetActive(c.Context(), id, active); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleTenantPurge(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tenant ID")
	}
	// Confirm the tenant exists before cascading.
	if _, err := s.store.Tenants().Get(c.Context(), id); err != nil {
		return s.storeError(c, err)
	}
	if err := s.purgeTenantData(c.Context(), id); err != nil {
		return s.storeError(c, err)
	}
	s.logger.Warn("tenant data purged", slog.String("tenant_id", id.String()))
	return c.JSON(http.StatusNoContent, nil)
}

// purgeTenantData removes every row and every workspace artifact a tenant
// owns. The tenant record itself stays; deleting it is a separate call.
func (s *Server) purgeTenantData(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Admin().PurgeTenant(ctx, id); err != nil {
		return err
	}
	if s.config.Workspace != nil {
		if err := s.config.Workspace.RemoveTenantDir(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleTenantDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tenant ID")
	}
	if err := s.store.Tenants().Delete(c.Context(), id); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleDocumentReport(c *okapi.Context) error {
	counts, err := s.store.Admin().DocumentCountsByTenant(c.Context())
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]TenantReportRow, 0, len(counts))
	for id, n := range counts {
		out = append(out, TenantReportRow{TenantID: id.String(), Documents: n})
	}
	return c.OK(out)
}

func (s *Server) handlePurgeDeleted(c *okapi.Context) error {
	// Default retention window; the maintenance scheduler owns the routine
	// sweep, this endpoint is the manual trigger.
	cutoff := time.Now().AddDate(0, 0, -30)
	if v := c.Request().URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return c.AbortBadRequest("invalid days parameter")
		}
		cutoff = time.Now().AddDate(0, 0, -days)
	}

	removed, err := s.store.Admin().PurgeDeleted(c.Context(), cutoff)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(&PurgeResponse{Removed: removed})
}
