package enterprise

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/errors"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/resilience"
	"github.com/entadmin/adminkit/storage"
	"github.com/entadmin/adminkit/validation"
)

const (
	tableEnterprises = "/enterprises"
	tableDocuments   = "/enterprise_documents"
	resource         = "enterprise"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Option configures a Service.
type Option func(*Service)

// WithStorage sets the store used for document uploads.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) { svc.store = s }
}

// WithRetry retries idempotent calls that fail with a retryable envelope.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(svc *Service) { svc.retry = cfg }
}

// WithLogger sets the service logger. Without it the logger registered
// for the "enterprise" component is used.
func WithLogger(l *logger.Logger) Option {
	return func(svc *Service) { svc.log = l.WithComponent("enterprise") }
}

// WithMaxDocumentSize caps document uploads. Defaults to storage.DefaultMaxFileSize.
func WithMaxDocumentSize(n int64) Option {
	return func(svc *Service) { svc.maxDocSize = n }
}

// WithClock replaces time.Now for workflow timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// DocumentTypes are the MIME types accepted by UploadDocument.
var DocumentTypes = []string{"application/pdf", "image/*"}

// Service manages enterprises.
type Service struct {
	api        apiclient.Requester
	store      storage.Storage
	retry      resilience.RetryConfig
	log        *logger.Logger
	maxDocSize int64
	now        func() time.Time
}

// NewService returns a service that sends requests through api, normally a
// REST client from supabase.Project.Rest.
func NewService(api apiclient.Requester, opts ...Option) *Service {
	s := &Service{
		api:        api,
		log:        logger.Component("enterprise"),
		maxDocSize: storage.DefaultMaxFileSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// idempotent runs fn under the retry policy.
func idempotent[T any](ctx context.Context, s *Service, fn func(ctx context.Context) apiclient.Envelope[T]) apiclient.Envelope[T] {
	if !s.retry.Enabled() {
		return fn(ctx)
	}
	return resilience.RetryEnvelope(ctx, s.retry, fn)
}

func byID(id string) string {
	return "?id=eq." + url.QueryEscape(id)
}

// CreateRules are the field rules applied by Create, in display order.
var CreateRules = []validation.FieldRules{
	validation.Field("name", validation.Required("enterprise name is required"), validation.MaxLength(100, "")),
	validation.Field("type", validation.Required("enterprise type is required"),
		validation.OneOf(typeNames(), "unknown enterprise type")),
	validation.Field("address", validation.Required("address is required"), validation.MaxLength(200, "")),
	validation.Field("founded_date", validation.Matches(datePattern, "use the YYYY-MM-DD format")),
	validation.Field("registered_capital", validation.Check(func(v any) (bool, string) {
		s, _ := v.(string)
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || n < 0 {
			return false, "registered capital must be a non-negative number"
		}
		return true, ""
	}, "")),
	validation.Field("phone", validation.Phone("")),
	validation.Field("email", validation.Email("")),
	validation.Field("website", validation.URL("")),
	validation.Field("description", validation.MaxLength(1000, "")),
}

func typeNames() []string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return names
}

// List returns enterprises matching q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Enterprise, error) {
	env := idempotent(ctx, s, func(ctx context.Context) apiclient.Envelope[[]Enterprise] {
		return apiclient.Get[[]Enterprise](ctx, s.api, tableEnterprises+"?"+q.encode())
	})
	if !env.Success {
		return nil, env.Err()
	}
	return env.Value(), nil
}

// Get returns one enterprise.
func (s *Service) Get(ctx context.Context, id string) (*Enterprise, error) {
	env := idempotent(ctx, s, func(ctx context.Context) apiclient.Envelope[[]Enterprise] {
		return apiclient.Get[[]Enterprise](ctx, s.api, tableEnterprises+byID(id)+"&select=*")
	})
	return single(env, id)
}

// Create validates p and inserts a draft owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, p CreateParams) (*Enterprise, error) {
	if ownerID == "" {
		return nil, errors.MissingField("auth_user_id")
	}
	if res := validation.ValidateForm(p.values(), CreateRules); !res.IsValid {
		return nil, res.Err()
	}

	env := apiclient.Post[[]Enterprise](ctx, s.api, tableEnterprises, []map[string]any{p.row(ownerID)})
	e, err := single(env, "")
	if err != nil {
		return nil, err
	}
	s.log.Info("enterprise created", logger.Fields(logger.FieldEnterprise, e.ID, logger.FieldUserID, ownerID))
	return e, nil
}

// Update changes the fields set in p.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Enterprise, error) {
	if p.Type != nil && !p.Type.Valid() {
		return nil, errors.Validation("unknown enterprise type").WithDetail("type", *p.Type)
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, errors.Validation("unknown enterprise status").WithDetail("status", *p.Status)
	}
	env := idempotent(ctx, s, func(ctx context.Context) apiclient.Envelope[[]Enterprise] {
		return apiclient.Patch[[]Enterprise](ctx, s.api, tableEnterprises+byID(id), p)
	})
	return single(env, id)
}

// Delete removes the enterprise.
func (s *Service) Delete(ctx context.Context, id string) error {
	env := idempotent(ctx, s, func(ctx context.Context) apiclient.Envelope[json.RawMessage] {
		return apiclient.Delete[json.RawMessage](ctx, s.api, tableEnterprises+byID(id))
	})
	if !env.Success {
		return env.Err()
	}
	s.log.Info("enterprise deleted", logger.Fields(logger.FieldEnterprise, id))
	return nil
}

// Submit sends a draft for review.
func (s *Service) Submit(ctx context.Context, id string) (*Enterprise, error) {
	now := s.now().UTC()
	e, err := s.transition(ctx, id, StatusDraft, StatusPending, map[string]any{
		"status":       StatusPending,
		"submitted_at": now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("enterprise submitted", logger.Fields(logger.FieldEnterprise, id))
	return e, nil
}

// Review approves or rejects a pending enterprise.
func (s *Service) Review(ctx context.Context, id string, p ReviewParams) (*Enterprise, error) {
	if p.Status != StatusApproved && p.Status != StatusRejected {
		return nil, errors.Validation("review status must be approved or rejected").WithDetail("status", p.Status)
	}
	if p.Status == StatusRejected && p.Comment == "" {
		return nil, errors.MissingField("review_comment")
	}

	patch := map[string]any{"status": p.Status, "review_comment": p.Comment}
	if p.Status == StatusApproved {
		patch["approved_at"] = s.now().UTC()
		patch["approved_by"] = p.ReviewerID
	}
	e, err := s.transition(ctx, id, StatusPending, p.Status, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info("enterprise reviewed", logger.Fields(
		logger.FieldEnterprise, id, "decision", p.Status, logger.FieldUserID, p.ReviewerID))
	return e, nil
}

// transition applies patch only while the record is still in from. A record
// that moved in between is reported as an invalid state.
func (s *Service) transition(ctx context.Context, id string, from, to Status, patch map[string]any) (*Enterprise, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != from {
		return nil, errors.InvalidState(resource, string(current.Status), string(to))
	}

	endpoint := tableEnterprises + byID(id) + "&status=eq." + string(from)
	env := apiclient.Patch[[]Enterprise](ctx, s.api, endpoint, patch)
	if !env.Success {
		return nil, env.Err()
	}
	if len(env.Value()) == 0 {
		return nil, errors.InvalidState(resource, "changed", string(to))
	}
	e := env.Value()[0]
	return &e, nil
}

func single(env apiclient.Envelope[[]Enterprise], id string) (*Enterprise, error) {
	if !env.Success {
		return nil, env.Err()
	}
	rows := env.Value()
	if len(rows) == 0 {
		return nil, errors.NotFound(resource, id)
	}
	e := rows[0]
	return &e, nil
}
