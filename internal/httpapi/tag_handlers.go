package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/events"
)

// TagRequest is the request body for creating or updating a tag.
type TagRequest struct {
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
	IsInbox bool   `json:"is_inbox,omitempty"`
}

// TagResponse is the API representation of a tag.
type TagResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	IsInbox   bool      `json:"is_inbox"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Color:     t.Color,
		IsInbox:   t.IsInbox,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (s *Server) registerTagRoutes(g *okapi.Group) {
	g.Post("/tags", s.handleTagCreate,
		okapi.DocSummary("Create a tag"),
		okapi.DocTags("Tags"),
		okapi.DocRequestBody(TagRequest{}),
		okapi.DocResponse(http.StatusCreated, TagResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
	)
	g.Get("/tags", s.handleTagList,
		okapi.DocSummary("List the tags of the requesting tenant"),
		okapi.DocTags("Tags"),
		okapi.DocResponse([]TagResponse{}),
	)
	g.Get("/tags/{id}", s.handleTagGet,
		okapi.DocSummary("Get a tag by ID"),
		okapi.DocTags("Tags"),
		okapi.DocPathParam("id", "string", "Tag ID (UUID)"),
		okapi.DocResponse(TagResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Put("/tags/{id}", s.handleTagUpdate,
		okapi.DocSummary("Update a tag"),
		okapi.DocTags("Tags"),
		okapi.DocPathParam("id", "string", "Tag ID (UUID)"),
		okapi.DocRequestBody(TagRequest{}),
		okapi.DocResponse(TagResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Delete("/tags/{id}", s.handleTagDelete,
		okapi.DocSummary("Delete a tag and its document links"),
		okapi.DocTags("Tags"),
		okapi.DocPathParam("id", "string", "Tag ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Get("/tags/{id}/documents", s.handleTagDocuments,
		okapi.DocSummary("List documents carrying a tag"),
		okapi.DocTags("Tags"),
		okapi.DocPathParam("id", "string", "Tag ID (UUID)"),
		okapi.DocResponse([]DocumentResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
}

func (s *Server) handleTagCreate(c *okapi.Context) error {
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	tag := &domain.Tag{
		Name:    req.Name,
		Color:   req.Color,
		IsInbox: req.IsInbox,
	}
	if err := s.store.Tags().Create(scopedContext(c), tag); err != nil {
		return s.storeError(c, err)
	}

	s.publish(c, events.TypeTagCreated, tag.ID, tag.Name)
	return c.JSON(http.StatusCreated, toTagResponse(tag))
}

func (s *Server) handleTagList(c *okapi.Context) error {
	tags, err := s.store.Tags().List(scopedContext(c))
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, toTagResponse(&tags[i]))
	}
	return c.OK(out)
}

func (s *Server) handleTagGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}

	tag, err := s.store.Tags().Get(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toTagResponse(tag))
}

func (s *Server) handleTagUpdate(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	ctx := scopedContext(c)
	tag := &domain.Tag{
		ID:      id,
		Name:    req.Name,
		Color:   req.Color,
		IsInbox: req.IsInbox,
	}
	if err := s.store.Tags().Update(ctx, tag); err != nil {
		return s.storeError(c, err)
	}

	tag, err = s.store.Tags().Get(ctx, id)
	if err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeTagUpdated, tag.ID, tag.Name)
	return c.OK(toTagResponse(tag))
}

func (s *Server) handleTagDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}

	if err := s.store.Tags().Delete(scopedContext(c), id); err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeTagDeleted, id, "")
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleTagDocuments(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}

	docs, err := s.store.Documents().ListByTag(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	return c.OK(out)
}
