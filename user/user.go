// Package user manages the application user table that mirrors platform
// auth accounts.
package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/auth"
	"github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/resilience"
	"github.com/entadmin/adminkit/storage"
	"github.com/entadmin/adminkit/util"
	"github.com/entadmin/adminkit/validation"
)

const (
	table    = "/users"
	resource = "user"

	// MaxAvatarSize is the largest avatar UploadAvatar accepts.
	MaxAvatarSize = 2 * 1024 * 1024
)

// User is a row of the users table.
type User struct {
	ID          string          `json:"id"`
	AuthUserID  string          `json:"auth_user_id"`
	Email       string          `json:"email"`
	Role        auth.Role       `json:"role"`
	Status      auth.UserStatus `json:"status,omitempty"`
	FirstName   string          `json:"first_name,omitempty"`
	LastName    string          `json:"last_name,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// Info returns the role-bearing view used by the auth helpers.
func (u User) Info() auth.UserInfo {
	return auth.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// CreateParams describes a new user row.
type CreateParams struct {
	AuthUserID string    `json:"auth_user_id"`
	Email      string    `json:"email"`
	Role       auth.Role `json:"role"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
}

// UpdateParams changes the named fields. Nil fields are left untouched.
type UpdateParams struct {
	FirstName *string          `json:"first_name,omitempty"`
	LastName  *string          `json:"last_name,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	AvatarURL *string          `json:"avatar_url,omitempty"`
	Role      *auth.Role       `json:"role,omitempty"`
	Status    *auth.UserStatus `json:"status,omitempty"`
}

var createRules = []validation.FieldRules{
	validation.Field("auth_user_id", validation.Required("")),
	validation.Field("email", validation.Required(""), validation.Email("")),
	validation.Field("phone", validation.Phone("")),
	validation.Field("first_name", validation.MaxLength(50, "")),
	validation.Field("last_name", validation.MaxLength(50, "")),
}

// Option configures a Service.
type Option func(*Service)

func WithStorage(s storage.Storage) Option { return func(svc *Service) { svc.store = s } }

func WithRetry(cfg resilience.RetryConfig) Option { return func(svc *Service) { svc.retry = cfg } }

func WithLogger(l *logger.Logger) Option {
	return func(svc *Service) { svc.log = l.WithComponent("user") }
}

// Service manages users.
type Service struct {
	api   apiclient.Requester
	store storage.Storage
	retry resilience.RetryConfig
	log   *logger.Logger
}

func NewService(api apiclient.Requester, opts ...Option) *Service {
	s := &Service{api: api, log: logger.Component("user")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) query(ctx context.Context, endpoint string) apiclient.Envelope[[]User] {
	get := func(ctx context.Context) apiclient.Envelope[[]User] {
		return apiclient.Get[[]User](ctx, s.api, endpoint)
	}
	if !s.retry.Enabled() {
		return get(ctx)
	}
	return resilience.RetryEnvelope(ctx, s.retry, get)
}

// List returns every user, newest first. The REST API only returns all rows
// to super admins.
func (s *Service) List(ctx context.Context) ([]User, error) {
	env := s.query(ctx, table+"?select=*&order=created_at.desc")
	if !env.Success {
		return nil, env.Err()
	}
	return env.Value(), nil
}

// Get returns the user with the given row id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return first(s.query(ctx, table+"?select=*&id=eq."+url.QueryEscape(id)), id)
}

// Current returns the user row linked to an auth account.
func (s *Service) Current(ctx context.Context, authUserID string) (*User, error) {
	if authUserID == "" {
		return nil, errors.Unauthorized("")
	}
	return first(s.query(ctx, table+"?select=*&auth_user_id=eq."+url.QueryEscape(authUserID)), authUserID)
}

// IsSuperAdmin reports whether the auth account belongs to a super admin.
// A missing user row is not an error.
func (s *Service) IsSuperAdmin(ctx context.Context, authUserID string) (bool, error) {
	u, err := s.Current(ctx, authUserID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Role == auth.RoleSuperAdmin, nil
}

// Create inserts a user row. An empty role defaults to user.
func (s *Service) Create(ctx context.Context, p CreateParams) (*User, error) {
	values := map[string]any{
		"auth_user_id": p.AuthUserID,
		"email":        p.Email,
		"phone":        p.Phone,
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
	}
	if res := validation.ValidateForm(values, createRules); !res.IsValid {
		return nil, res.Err()
	}
	if p.Role == "" {
		p.Role = auth.RoleUser
	}
	if !p.Role.Valid() {
		return nil, errors.Validation("unknown role").WithDetail("role", p.Role)
	}

	u, err := first(apiclient.Post[[]User](ctx, s.api, table, []CreateParams{p}), "")
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", logger.Fields(logger.FieldUserID, u.ID, "role", u.Role))
	return u, nil
}

// Update changes the fields set in p.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*User, error) {
	if p.Phone != nil {
		if msg := validation.ValidateField(*p.Phone, validation.Phone("")); msg != "" {
			return nil, errors.Validation(msg).WithDetail("field", "phone")
		}
	}
	if p.Role != nil && !p.Role.Valid() {
		return nil, errors.Validation("unknown role").WithDetail("role", *p.Role)
	}
	return first(apiclient.Patch[[]User](ctx, s.api, table+"?id=eq."+url.QueryEscape(id), p), id)
}

// Delete removes the user row. The auth account is left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	env := apiclient.Delete[json.RawMessage](ctx, s.api, table+"?id=eq."+url.QueryEscape(id))
	if !env.Success {
		return env.Err()
	}
	s.log.Info("user deleted", logger.Fields(logger.FieldUserID, id))
	return nil
}

// UploadAvatar stores an image under avatars/<id>/ and points the user's
// avatar_url at it.
func (s *Service) UploadAvatar(ctx context.Context, id, fileName, contentType string, size int64, body io.Reader) (*User, error) {
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "avatar storage is not configured", http.StatusInternalServerError)
	}
	if !storage.IsImage(contentType) {
		return nil, errors.Validation("avatar must be an image").WithDetail("content_type", contentType)
	}
	if !validation.ValidateFileSize(size, MaxAvatarSize) {
		return nil, errors.Validation("avatar must be at most " + storage.FormatSize(MaxAvatarSize))
	}

	key := storage.UniqueFilename(path.Base(fileName), "avatars/"+id+"/")
	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return nil, errors.ExternalServiceError("storage", err)
	}
	avatarURL, err := s.store.URL(ctx, key)
	if err != nil {
		return nil, errors.ExternalServiceError("storage", err)
	}

	u, err := s.Update(ctx, id, UpdateParams{AvatarURL: util.Ptr(avatarURL)})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("orphaned avatar object", logger.ErrorFields("upload_avatar", derr), logger.Fields(logger.FieldPath, key))
		}
		return nil, err
	}
	s.log.Debug("avatar updated", logger.Fields(logger.FieldUserID, id, logger.FieldPath, key))
	return u, nil
}

func first(env apiclient.Envelope[[]User], id string) (*User, error) {
	if !env.Success {
		return nil, env.Err()
	}
	rows := env.Value()
	if len(rows) == 0 {
		return nil, errors.NotFound(resource, id)
	}
	u := rows[0]
	return &u, nil
}
