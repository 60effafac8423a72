package postgres

import (
	"encoding/json"

	"github.com/docshelfhq/docshelf/internal/domain"
)

func toTenantDomain(m *TenantModel) *domain.Tenant {
	return &domain.Tenant{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		Active:    m.Active,
		Region:    m.Region,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCorrespondentDomain(m *CorrespondentModel) *domain.Correspondent {
	return &domain.Correspondent{
		ID:                m.ID,
		TenantID:          m.TenantID,
		Name:              m.Name,
		Match:             m.Match,
		MatchingAlgorithm: m.MatchingAlgorithm,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toDocumentTypeDomain(m *DocumentTypeModel) *domain.DocumentType {
	return &domain.DocumentType{
		ID:                m.ID,
		TenantID:          m.TenantID,
		Name:              m.Name,
		Match:             m.Match,
		MatchingAlgorithm: m.MatchingAlgorithm,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toTagDomain(m *TagModel) *domain.Tag {
	return &domain.Tag{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Color:     m.Color,
		IsInbox:   m.IsInbox,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDocumentDomain(m *DocumentModel) *domain.Document {
	return &domain.Document{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Title:           m.Title,
		Content:         m.Content,
		Checksum:        m.Checksum,
		StoragePath:     m.StoragePath,
		MimeType:        m.MimeType,
		CorrespondentID: m.CorrespondentID,
		DocumentTypeID:  m.DocumentTypeID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toSavedViewDomain(m *SavedViewModel) *domain.SavedView {
	rules := map[string]string{}
	if len(m.FilterRules) > 0 {
		_ = json.Unmarshal([]byte(m.FilterRules), &rules)
	}
	return &domain.SavedView{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Owner:           m.Owner,
		Name:            m.Name,
		ShowOnDashboard: m.ShowOnDashboard,
		SortField:       m.SortField,
		SortReverse:     m.SortReverse,
		FilterRules:     rules,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toSavedViewModel(v *domain.SavedView) SavedViewModel {
	rulesJSON := "{}"
	if len(v.FilterRules) > 0 {
		if data, err := json.Marshal(v.FilterRules); err == nil {
			rulesJSON = string(data)
		}
	}
	return SavedViewModel{
		ID:              v.ID,
		TenantID:        v.TenantID,
		Owner:           v.Owner,
		Name:            v.Name,
		ShowOnDashboard: v.ShowOnDashboard,
		SortField:       v.SortField,
		SortReverse:     v.SortReverse,
		FilterRules:     JSONB(rulesJSON),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
