package domain

import "time"

// TagTemplate is a named, reusable tag set. Applying a template is a bulk
// tag mutation with the template's tags against a caller-supplied id list.
type TagTemplate struct {
	ID          string            `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Description string            `json:"description" db:"description"`
	Category    string            `json:"category" db:"category"`
	Tags        map[string]string `json:"tags" db:"-"` // stored as JSON
	Version     int               `json:"version" db:"version"`
	CreatedBy   string            `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
}

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category"`
	Tags        map[string]string `json:"tags"`
}

// UpdateTemplateRequest is the request body for updating a template.
type UpdateTemplateRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// ApplyTemplateRequest is the request body for applying a template to a set
// of resources. Delete is intentionally not offered here.
type ApplyTemplateRequest struct {
	ResourceIDs []string     `json:"resourceIds"`
	Operation   TagOperation `json:"operation,omitempty"`
}
