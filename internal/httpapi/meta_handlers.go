package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"

	"github.com/docshelfhq/docshelf/internal/domain"
)

// ClassifierRequest is the shared request body for correspondents and
// document types: a name plus optional auto-matching configuration.
type ClassifierRequest struct {
	Name              string `json:"name"`
	Match             string `json:"match,omitempty"`
	MatchingAlgorithm string `json:"matching_algorithm,omitempty"`
}

// ClassifierResponse is the shared API representation for correspondents and
// document types.
type ClassifierResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Match             string    `json:"match,omitempty"`
	MatchingAlgorithm string    `json:"matching_algorithm,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SavedViewRequest is the request body for creating or updating a saved view.
type SavedViewRequest struct {
	Owner           string            `json:"owner"`
	Name            string            `json:"name"`
	ShowOnDashboard bool              `json:"show_on_dashboard,omitempty"`
	SortField       string            `json:"sort_field,omitempty"`
	SortReverse     bool              `json:"sort_reverse,omitempty"`
	FilterRules     map[string]string `json:"filter_rules,omitempty"`
}

// SavedViewResponse is the API representation of a saved view.
type SavedViewResponse struct {
	ID              string            `json:"id"`
	Owner           string            `json:"owner"`
	Name            string            `json:"name"`
	ShowOnDashboard bool              `json:"show_on_dashboard"`
	SortField       string            `json:"sort_field,omitempty"`
	SortReverse     bool              `json:"sort_reverse"`
	FilterRules     map[string]string `json:"filter_rules,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toCorrespondentResponse(co *domain.Correspondent) ClassifierResponse {
	return ClassifierResponse{
		ID:                co.ID.String(),
		Name:              co.Name,
		Match:             co.Match,
		MatchingAlgorithm: co.MatchingAlgorithm,
		CreatedAt:         co.CreatedAt,
		UpdatedAt:         co.UpdatedAt,
	}
}

func toDocumentTypeResponse(dt *domain.DocumentType) ClassifierResponse {
	return ClassifierResponse{
		ID:                dt.ID.String(),
		Name:              dt.Name,
		Match:             dt.Match,
		MatchingAlgorithm: dt.MatchingAlgorithm,
		CreatedAt:         dt.CreatedAt,
		UpdatedAt:         dt.UpdatedAt,
	}
}

func toSavedViewResponse(v *domain.SavedView) SavedViewResponse {
	return SavedViewResponse{
		ID:              v.ID.String(),
		Owner:           v.Owner,
		Name:            v.Name,
		ShowOnDashboard: v.ShowOnDashboard,
		SortField:       v.SortField,
		SortReverse:     v.SortReverse,
		FilterRules:     v.FilterRules,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func (s *Server) registerCorrespondentRoutes(g *okapi.Group) {
	g.Post("/correspondents", s.handleCorrespondentCreate,
		okapi.DocSummary("Create a correspondent"),
		okapi.DocTags("Correspondents"),
		okapi.DocRequestBody(ClassifierRequest{}),
		okapi.DocResponse(http.StatusCreated, ClassifierResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.Get("/correspondents", s.handleCorrespondentList,
		okapi.DocSummary("List correspondents"),
		okapi.DocTags("Correspondents"),
		okapi.DocResponse([]ClassifierResponse{}),
	)
	g.Get("/correspondents/{id}", s.handleCorrespondentGet,
		okapi.DocSummary("Get a correspondent by ID"),
		okapi.DocTags("Correspondents"),
		okapi.DocPathParam("id", "string", "Correspondent ID (UUID)"),
		okapi.DocResponse(ClassifierResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Put("/correspondents/{id}", s.handleCorrespondentUpdate,
		okapi.DocSummary("Update a correspondent"),
		okapi.DocTags("Correspondents"),
		okapi.DocPathParam("id", "string", "Correspondent ID (UUID)"),
		okapi.DocRequestBody(ClassifierRequest{}),
		okapi.DocResponse(ClassifierResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Delete("/correspondents/{id}", s.handleCorrespondentDelete,
		okapi.DocSummary("Delete a correspondent, unlinking its documents"),
		okapi.DocTags("Correspondents"),
		okapi.DocPathParam("id", "string", "Correspondent ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Get("/correspondents/{id}/documents", s.handleCorrespondentDocuments,
		okapi.DocSummary("List documents from a correspondent"),
		okapi.DocTags("Correspondents"),
		okapi.DocPathParam("id", "string", "Correspondent ID (UUID)"),
		okapi.DocResponse([]DocumentResponse{}),
	)
}

func (s *Server) registerDocumentTypeRoutes(g *okapi.Group) {
	g.Post("/document-types", s.handleDocumentTypeCreate,
		okapi.DocSummary("Create a document type"),
		okapi.DocTags("DocumentTypes"),
		okapi.DocRequestBody(ClassifierRequest{}),
		okapi.DocResponse(http.StatusCreated, ClassifierResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.Get("/document-types", s.handleDocumentTypeList,
		okapi.DocSummary("List document types"),
		okapi.DocTags("DocumentTypes"),
		okapi.DocResponse([]ClassifierResponse{}),
	)
	g.Get("/document-types/{id}", s.handleDocumentTypeGet,
		okapi.DocSummary("Get a document type by ID"),
		okapi.DocTags("DocumentTypes"),
		okapi.DocPathParam("id", "string", "Document type ID (UUID)"),
		okapi.DocResponse(ClassifierResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Put("/document-types/{id}", s.handleDocumentTypeUpdate,
		okapi.DocSummary("Update a document type"),
		okapi.DocTags("DocumentTypes"),
		okapi.DocPathParam("id", "string", "Document type ID (UUID)"),
		okapi.DocRequestBody(ClassifierRequest{}),
		okapi.DocResponse(ClassifierResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Delete("/document-types/{id}", s.handleDocumentTypeDelete,
		okapi.DocSummary("Delete a document type, unlinking its documents"),
		okapi.DocTags("DocumentTypes"),
		okapi.DocPathParam("id", "string", "Document type ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
}

func (s *Server) registerSavedViewRoutes(g *okapi.Group) {
	g.Post("/saved-views", s.handleSavedViewCreate,
		okapi.DocSummary("Create a saved view"),
		okapi.DocTags("SavedViews"),
		okapi.DocRequestBody(SavedViewRequest{}),
		okapi.DocResponse(http.StatusCreated, SavedViewResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	g.Get("/saved-views", s.handleSavedViewList,
		okapi.DocSummary("List saved views for an owner"),
		okapi.DocTags("SavedViews"),
		okapi.DocResponse([]SavedViewResponse{}),
	)
	g.Get("/saved-views/{id}", s.handleSavedViewGet,
		okapi.DocSummary("Get a saved view by ID"),
		okapi.DocTags("SavedViews"),
		okapi.DocPathParam("id", "string", "Saved view ID (UUID)"),
		okapi.DocResponse(SavedViewResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Put("/saved-views/{id}", s.handleSavedViewUpdate,
		okapi.DocSummary("Update a saved view"),
		okapi.DocTags("SavedViews"),
		okapi.DocPathParam("id", "string", "Saved view ID (UUID)"),
		okapi.DocRequestBody(SavedViewRequest{}),
		okapi.DocResponse(SavedViewResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Delete("/saved-views/{id}", s.handleSavedViewDelete,
		okapi.DocSummary("Delete a saved view"),
		okapi.DocTags("SavedViews"),
		okapi.DocPathParam("id", "string", "Saved view ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
}

// --- Correspondents ---

func (s *Server) handleCorrespondentCreate(c *okapi.Context) error {
	var req ClassifierRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	co := &domain.Correspondent{
		Name:              req.Name,
		Match:             req.Match,
		MatchingAlgorithm: req.MatchingAlgorithm,
	}
	if err := s.store.Correspondents().Create(scopedContext(c), co); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toCorrespondentResponse(co))
}

func (s *Server) handleCorrespondentList(c *okapi.Context) error {
	list, err := s.store.Correspondents().List(scopedContext(c))
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]ClassifierResponse, 0, len(list))
	for i := range list {
		out = append(out, toCorrespondentResponse(&list[i]))
	}
	return c.OK(out)
}

func (s *Server) handleCorrespondentGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid correspondent ID")
	}
	co, err := s.store.Correspondents().Get(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toCorrespondentResponse(co))
}

func (s *Server) handleCorrespondentUpdate(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid correspondent ID")
	}
	var req ClassifierRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	ctx := scopedContext(c)
	co := &domain.Correspondent{
		ID:                id,
		Name:              req.Name,
		Match:             req.Match,
		MatchingAlgorithm: req.MatchingAlgorithm,
	}
	if err := s.store.Correspondents().Update(ctx, co); err != nil {
		return s.storeError(c, err)
	}
	co, err = s.store.Correspondents().Get(ctx, id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toCorrespondentResponse(co))
}

func (s *Server) handleCorrespondentDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid correspondent ID")
	}
	if err := s.store.Correspondents().Delete(scopedContext(c), id); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleCorrespondentDocuments(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid correspondent ID")
	}
	docs, err := s.store.Documents().ListByCorrespondent(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	return c.OK(out)
}

// --- Document types ---

func (s *Server) handleDocumentTypeCreate(c *okapi.Context) error {
	var req ClassifierRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	dt := &domain.DocumentType{
		Name:              req.Name,
		Match:             req.Match,
		MatchingAlgorithm: req.MatchingAlgorithm,
	}
	if err := s.store.DocumentTypes().Create(scopedContext(c), dt); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toDocumentTypeResponse(dt))
}

func (s *Server) handleDocumentTypeList(c *okapi.Context) error {
	list, err := s.store.DocumentTypes().List(scopedContext(c))
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]ClassifierResponse, 0, len(list))
	for i := range list {
		out = append(out, toDocumentTypeResponse(&list[i]))
	}
	return c.OK(out)
}

func (s *Server) handleDocumentTypeGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document type ID")
	}
	dt, err := s.store.DocumentTypes().Get(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toDocumentTypeResponse(dt))
}

func (s *Server) handleDocumentTypeUpdate(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document type ID")
	}
	var req ClassifierRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	ctx := scopedContext(c)
	dt := &domain.DocumentType{
		ID:                id,
		Name:              req.Name,
		Match:             req.Match,
		MatchingAlgorithm: req.MatchingAlgorithm,
	}
	if err := s.store.DocumentTypes().Update(ctx, dt); err != nil {
		return s.storeError(c, err)
	}
	dt, err = s.store.DocumentTypes().Get(ctx, id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toDocumentTypeResponse(dt))
}

func (s *Server) handleDocumentTypeDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document type ID")
	}
	if err := s.store.DocumentTypes().Delete(scopedContext(c), id); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusNoContent, nil)
}

// --- Saved views ---

func (s *Server) handleSavedViewCreate(c *okapi.Context) error {
	var req SavedViewRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Owner == "" {
		return c.AbortBadRequest("owner is required")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	view := &domain.SavedView{
		Owner:           req.Owner,
		Name:            req.Name,
		ShowOnDashboard: req.ShowOnDashboard,
		SortField:       req.SortField,
		SortReverse:     req.SortReverse,
		FilterRules:     req.FilterRules,
	}
	if err := s.store.SavedViews().Create(scopedContext(c), view); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toSavedViewResponse(view))
}

func (s *Server) handleSavedViewList(c *okapi.Context) error {
	owner := c.Request().URL.Query().Get("owner")
	if owner == "" {
		return c.AbortBadRequest("owner query parameter is required")
	}

	views, err := s.store.SavedViews().ListForOwner(scopedContext(c), owner)
	if err != nil {
		return s.storeError(c, err)
	}
	out := make([]SavedViewResponse, 0, len(views))
	for i := range views {
		out = append(out, toSavedViewResponse(&views[i]))
	}
	return c.OK(out)
}

func (s *Server) handleSavedViewGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid saved view ID")
	}
	view, err := s.store.SavedViews().Get(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toSavedViewResponse(view))
}

func (s *Server) handleSavedViewUpdate(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid saved view ID")
	}
	var req SavedViewRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	ctx := scopedContext(c)
	view := &domain.SavedView{
		ID:              id,
		Name:            req.Name,
		ShowOnDashboard: req.ShowOnDashboard,
		SortField:       req.SortField,
		SortReverse:     req.SortReverse,
		FilterRules:     req.FilterRules,
	}
	if err := s.store.SavedViews().Update(ctx, view); err != nil {
		return s.storeError(c, err)
	}
	view, err = s.store.SavedViews().Get(ctx, id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toSavedViewResponse(view))
}

func (s *Server) handleSavedViewDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid saved view ID")
	}
	if err := s.store.SavedViews().Delete(scopedContext(c), id); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusNoContent, nil)
}
