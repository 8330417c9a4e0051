package enterprise

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Status is the review state of an enterprise.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusSuspended}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Type is the legal form of an enterprise.
type Type string

const (
	TypeLimitedLiability   Type = "limited_liability"
	TypeJointStock         Type = "joint_stock"
	TypePartnership        Type = "partnership"
	TypeSoleProprietorship Type = "sole_proprietorship"
	TypeForeignInvested    Type = "foreign_invested"
	TypeOther              Type = "other"
)

var Types = []Type{
	TypeLimitedLiability, TypeJointStock, TypePartnership,
	TypeSoleProprietorship, TypeForeignInvested, TypeOther,
}

func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

// Enterprise is a row of the enterprises table.
type Enterprise struct {
	ID                string         `json:"id"`
	AuthUserID        string         `json:"auth_user_id"`
	Name              string         `json:"name"`
	Type              Type           `json:"type"`
	Industry          string         `json:"industry,omitempty"`
	FoundedDate       string         `json:"founded_date,omitempty"`
	RegisteredCapital *float64       `json:"registered_capital,omitempty"`
	BusinessScope     string         `json:"business_scope,omitempty"`
	Address           string         `json:"address"`
	Phone             string         `json:"phone,omitempty"`
	Email             string         `json:"email,omitempty"`
	Website           string         `json:"website,omitempty"`
	Description       string         `json:"description,omitempty"`
	Status            Status         `json:"status"`
	IsPublic          bool           `json:"is_public"`
	ReviewComment     string         `json:"review_comment,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	SubmittedAt       *time.Time     `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy        string         `json:"approved_by,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Document is a registration document attached to an enterprise.
type Document struct {
	ID           string     `json:"id,omitempty"`
	EnterpriseID string     `json:"enterprise_id"`
	DocumentType string     `json:"document_type"`
	DocumentName string     `json:"document_name"`
	FileURL      string     `json:"file_url"`
	FilePath     string     `json:"file_path"`
	FileSize     int64      `json:"file_size"`
	MimeType     string     `json:"mime_type"`
	IsVerified   bool       `json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	VerifiedBy   string     `json:"verified_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitzero"`
	UpdatedAt    time.Time  `json:"updated_at,omitzero"`
}

// Contact is a person to reach at an enterprise.
type Contact struct {
	ID           string    `json:"id,omitempty"`
	EnterpriseID string    `json:"enterprise_id"`
	Name         string    `json:"name"`
	Position     string    `json:"position,omitempty"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// CreateParams carries form input for a new enterprise. Values are kept as
// entered; Create validates and normalises them.
type CreateParams struct {
	Name              string
	Type              Type
	Industry          string
	FoundedDate       string
	RegisteredCapital string
	BusinessScope     string
	Address           string
	Phone             string
	Email             string
	Website           string
	Description       string
	IsPublic          bool
}

// values returns the form as a field map for validation.
func (p CreateParams) values() map[string]any {
	return map[string]any{
		"name":               p.Name,
		"type":               string(p.Type),
		"industry":           p.Industry,
		"founded_date":       p.FoundedDate,
		"registered_capital": p.RegisteredCapital,
		"business_scope":     p.BusinessScope,
		"address":            p.Address,
		"phone":              p.Phone,
		"email":              p.Email,
		"website":            p.Website,
		"description":        p.Description,
	}
}

// row builds the insert payload. Blank fields are dropped so the table
// defaults apply, and the registered capital is sent as a number.
func (p CreateParams) row(ownerID string) map[string]any {
	row := map[string]any{
		"auth_user_id": ownerID,
		"status":       StatusDraft,
		"is_public":    p.IsPublic,
	}
	for k, v := range p.values() {
		s, _ := v.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		row[k] = s
	}
	if s, ok := row["registered_capital"].(string); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			row["registered_capital"] = n
		}
	}
	return row
}

// UpdateParams changes the named fields. Nil fields are left untouched.
type UpdateParams struct {
	Name              *string  `json:"name,omitempty"`
	Type              *Type    `json:"type,omitempty"`
	Industry          *string  `json:"industry,omitempty"`
	FoundedDate       *string  `json:"founded_date,omitempty"`
	RegisteredCapital *float64 `json:"registered_capital,omitempty"`
	BusinessScope     *string  `json:"business_scope,omitempty"`
	Address           *string  `json:"address,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Website           *string  `json:"website,omitempty"`
	Description       *string  `json:"description,omitempty"`
	IsPublic          *bool    `json:"is_public,omitempty"`
	Status            *Status  `json:"status,omitempty"`
}

// ReviewParams settles a pending enterprise.
type ReviewParams struct {
	// Status must be approved or rejected.
	Status     Status
	Comment    string
	ReviewerID string
}

// Query filters List. Zero fields are ignored.
type Query struct {
	Status   Status
	Type     Type
	Industry string
	// Search matches a substring of the name, case-insensitively.
	Search string
	// Page is 1-based and only applies when Limit is set.
	Page  int
	Limit int
}

// encode renders q as REST query parameters, newest records first.
func (q Query) encode() string {
	v := url.Values{}
	v.Set("select", "*")
	v.Set("order", "created_at.desc")
	if q.Status != "" {
		v.Set("status", "eq."+string(q.Status))
	}
	if q.Type != "" {
		v.Set("type", "eq."+string(q.Type))
	}
	if q.Industry != "" {
		v.Set("industry", "eq."+q.Industry)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("name", "ilike.*"+s+"*")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
		if q.Page > 1 {
			v.Set("offset", strconv.Itoa((q.Page-1)*q.Limit))
		}
	}
	return v.Encode()
}
