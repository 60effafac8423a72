package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/events"
)

// DocumentRequest is the request body for creating or updating a document.
type DocumentRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content,omitempty"`
	Checksum        string `json:"checksum"`
	StoragePath     string `json:"storage_path,omitempty"`
	MimeType        string `json:"mime_type,omitempty"`
	CorrespondentID string `json:"correspondent_id,omitempty"`
	DocumentTypeID  string `json:"document_type_id,omitempty"`
}

// DocumentResponse is the API representation of a document.
type DocumentResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content,omitempty"`
	Checksum        string    `json:"checksum"`
	StoragePath     string    `json:"storage_path,omitempty"`
	MimeType        string    `json:"mime_type,omitempty"`
	CorrespondentID string    `json:"correspondent_id,omitempty"`
	DocumentTypeID  string    `json:"document_type_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toDocumentResponse(d *domain.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:          d.ID.String(),
		Title:       d.Title,
		Content:     d.Content,
		Checksum:    d.Checksum,
		StoragePath: d.StoragePath,
		MimeType:    d.MimeType,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.CorrespondentID != nil {
		resp.CorrespondentID = d.CorrespondentID.String()
	}
	if d.DocumentTypeID != nil {
		resp.DocumentTypeID = d.DocumentTypeID.String()
	}
	return resp
}

// toDocument converts a request body into a domain document. Reference IDs are
// parsed here; ownership of the referenced rows is the storage layer's call.
func toDocument(req *DocumentRequest) (*domain.Document, error) {
	d := &domain.Document{
		Title:       req.Title,
		Content:     req.Content,
		Checksum:    req.Checksum,
		StoragePath: req.StoragePath,
		MimeType:    req.MimeType,
	}
	if req.CorrespondentID != "" {
		id, err := uuid.Parse(req.CorrespondentID)
		if err != nil {
			return nil, err
		}
		d.CorrespondentID = &id
	}
	if req.DocumentTypeID != "" {
		id, err := uuid.Parse(req.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		d.DocumentTypeID = &id
	}
	return d, nil
}

func (s *Server) registerDocumentRoutes(g *okapi.Group) {
	g.Post("/documents", s.handleDocumentCreate,
		okapi.DocSummary("Create a document"),
		okapi.DocTags("Documents"),
		okapi.DocRequestBody(DocumentRequest{}),
		okapi.DocResponse(http.StatusCreated, DocumentResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
		okapi.DocResponse(http.StatusUnprocessableEntity, ErrorBody{}),
	)
	g.Get("/documents", s.handleDocumentList,
		okapi.DocSummary("List documents, optionally filtered by title, correspondent, type"),
		okapi.DocTags("Documents"),
		okapi.DocResponse([]DocumentResponse{}),
	)
	g.Get("/documents/{id}", s.handleDocumentGet,
		okapi.DocSummary("Get a document by ID"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocResponse(DocumentResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Put("/documents/{id}", s.handleDocumentUpdate,
		okapi.DocSummary("Update a document"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocRequestBody(DocumentRequest{}),
		okapi.DocResponse(DocumentResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
		okapi.DocResponse(http.StatusUnprocessableEntity, ErrorBody{}),
	)
	g.Delete("/documents/{id}", s.handleDocumentDelete,
		okapi.DocSummary("Delete a document and its tag links"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Get("/documents/{id}/tags", s.handleDocumentTags,
		okapi.DocSummary("List the tags attached to a document"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocResponse([]TagResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	g.Post("/documents/{id}/tags/{tagID}", s.handleDocumentAttachTag,
		okapi.DocSummary("Attach a tag to a document"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocPathParam("tagID", "string", "Tag ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
		okapi.DocResponse(http.StatusUnprocessableEntity, ErrorBody{}),
	)
	g.Delete("/documents/{id}/tags/{tagID}", s.handleDocumentDetachTag,
		okapi.DocSummary("Detach a tag from a document"),
		okapi.DocTags("Documents"),
		okapi.DocPathParam("id", "string", "Document ID (UUID)"),
		okapi.DocPathParam("tagID", "string", "Tag ID (UUID)"),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
}

func (s *Server) handleDocumentCreate(c *okapi.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Title == "" {
		return c.AbortBadRequest("title is required")
	}
	if req.Checksum == "" {
		return c.AbortBadRequest("checksum is required")
	}

	doc, err := toDocument(&req)
	if err != nil {
		return c.AbortBadRequest("invalid reference ID")
	}
	if err := s.store.Documents().Create(scopedContext(c), doc); err != nil {
		return s.storeError(c, err)
	}

	s.publish(c, events.TypeDocumentCreated, doc.ID, doc.Title)
	return c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleDocumentList(c *okapi.Context) error {
	q := c.Request().URL.Query()
	filter := domain.DocumentFilter{
		TitleContains: q.Get("title"),
	}
	if v := q.Get("correspondent"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.AbortBadRequest("invalid correspondent ID")
		}
		filter.CorrespondentID = &id
	}
	if v := q.Get("type"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.AbortBadRequest("invalid document type ID")
		}
		filter.DocumentTypeID = &id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.AbortBadRequest("invalid limit")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.AbortBadRequest("invalid offset")
		}
		filter.Offset = n
	}

	docs, err := s.store.Documents().List(scopedContext(c), filter)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	return c.OK(out)
}

func (s *Server) handleDocumentGet(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}

	doc, err := s.store.Documents().Get(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.OK(toDocumentResponse(doc))
}

func (s *Server) handleDocumentUpdate(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Title == "" {
		return c.AbortBadRequest("title is required")
	}

	doc, err := toDocument(&req)
	if err != nil {
		return c.AbortBadRequest("invalid reference ID")
	}
	doc.ID = id

	ctx := scopedContext(c)
	if err := s.store.Documents().Update(ctx, doc); err != nil {
		return s.storeError(c, err)
	}

	doc, err = s.store.Documents().Get(ctx, id)
	if err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeDocumentUpdated, doc.ID, doc.Title)
	return c.OK(toDocumentResponse(doc))
}

func (s *Server) handleDocumentDelete(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}

	if err := s.store.Documents().Delete(scopedContext(c), id); err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeDocumentDeleted, id, "")
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleDocumentTags(c *okapi.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}

	tags, err := s.store.Documents().TagsFor(scopedContext(c), id)
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, toTagResponse(&tags[i]))
	}
	return c.OK(out)
}

func (s *Server) handleDocumentAttachTag(c *okapi.Context) error {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}
	tagID, err := uuid.Parse(c.Param("tagID"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}

	if err := s.store.Documents().AttachTag(scopedContext(c), docID, tagID); err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeTagAttached, docID, tagID.String())
	return c.JSON(http.StatusNoContent, nil)
}

func (s *Server) handleDocumentDetachTag(c *okapi.Context) error {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.AbortBadRequest("invalid document ID")
	}
	tagID, err := uuid.Parse(c.Param("tagID"))
	if err != nil {
		return c.AbortBadRequest("invalid tag ID")
	}

	if err := s.store.Documents().DetachTag(scopedContext(c), docID, tagID); err != nil {
		return s.storeError(c, err)
	}
	s.publish(c, events.TypeTagDetached, docID, tagID.String())
	return c.JSON(http.StatusNoContent, nil)
}
