// Package applications manages financing applications and runs lender
// assignment and risk scoring against them.
package applications

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/metrics"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/scoring"
	"msme-lender-platform/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	})
	return v
}

// LenderSource supplies the lenders an assignment is computed against.
type LenderSource interface {
	ListActive(ctx context.Context) ([]models.LenderConfig, error)
}

// Notifier is told about status changes. Failures never fail the update.
type Notifier interface {
	StatusChanged(ctx context.Context, app models.Application, previous models.Status) error
}

// Index mirrors applications into a search backend.
type Index interface {
	Index(ctx context.Context, app models.Application) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, status models.Status) ([]models.Application, error)
}

// RiskAssessment is the result of a risk score request.
type RiskAssessment struct {
	ApplicationID string `json:"applicationId,omitempty"`
	RiskScore     int    `json:"riskScore"`
	RiskLevel     string `json:"riskLevel"`
}

// StatusChange is returned by SetStatus.
type StatusChange struct {
	Application    *models.Application `json:"application"`
	PreviousStatus models.Status       `json:"previousStatus"`
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithIndex(idx Index) Option { return func(s *Service) { s.index = idx } }

type Service struct {
	store    store.ApplicationStore
	lenders  LenderSource
	engine   *scoring.Engine
	notifier Notifier
	index    Index
	logger   logger.Logger
	now      func() time.Time
}

func NewService(st store.ApplicationStore, lenders LenderSource, engine *scoring.Engine, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		lenders: lenders,
		engine:  engine,
		logger:  log.WithFields(map[string]interface{}{"component": "applications"}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]models.Application, error) {
	apps, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return apps, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewApplicationNotFoundError(id)
		}
		return nil, errors.NewQueryExecutionFailedError("get application", err)
	}
	return app, nil
}

// Create stores a new pending application.
func (s *Service) Create(ctx context.Context, body []byte) (*models.Application, error) {
	in, err := decodeInput(body)
	if err != nil {
		return nil, err
	}

	app := in.ToApplication()
	now := s.now().UTC()
	app.ID = uuid.New().String()
	app.Status = models.StatusPending
	app.AssignedLender = nil
	app.CreatedAt = now
	app.UpdatedAt = now

	if err := validateApplication(app); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, &app); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	metrics.ApplicationsByStatus.WithLabelValues(string(app.Status)).Inc()
	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"companyName":   app.CompanyName,
	})
	s.reindex(ctx, app)
	return &app, nil
}

// Update merges body into the stored application. Top-level keys replace
// the stored values; id and createdAt are immutable. Status changes must
// follow the allowed transitions.
func (s *Service) Update(ctx context.Context, id string, body []byte) (*models.Application, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil || patch == nil {
		return nil, errors.NewInvalidRequestError("request body must be a JSON object")
	}

	merged, err := merge(*existing, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = s.now().UTC()

	if merged.Status == "" {
		merged.Status = existing.Status
	}
	if !merged.Status.Valid() {
		return nil, errors.NewApplicationValidationFailedError(fmt.Sprintf("status: unknown value %q", merged.Status))
	}
	if !existing.Status.CanTransitionTo(merged.Status) {
		return nil, errors.NewInvalidStatusTransitionError(string(existing.Status), string(merged.Status))
	}
	if err := validateApplication(merged); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, &merged); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewApplicationNotFoundError(id)
		}
		return nil, errors.NewQueryExecutionFailedError("update application", err)
	}
	s.logger.Info("application updated", map[string]interface{}{"applicationId": id, "fields": len(patch)})

	if merged.Status != existing.Status {
		s.statusChanged(ctx, merged, existing.Status)
	}
	s.reindex(ctx, merged)
	return &merged, nil
}

// SetStatus moves an application to status, returning the previous status.
func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) (*StatusChange, error) {
	if !status.Valid() {
		return nil, errors.NewApplicationValidationFailedError(fmt.Sprintf("status: unknown value %q", status))
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(map[string]models.Status{"status": status})
	updated, err := s.Update(ctx, id, body)
	if err != nil {
		return nil, err
	}
	return &StatusChange{Application: updated, PreviousStatus: existing.Status}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.NewApplicationNotFoundError(id)
		}
		return errors.NewQueryExecutionFailedError("delete application", err)
	}
	s.logger.Info("application deleted", map[string]interface{}{"applicationId": id})
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("search index delete failed", map[string]interface{}{"applicationId": id, "error": err.Error()})
		}
	}
	return nil
}

// CalculateAssignment scores an ad hoc application payload.
func (s *Service) CalculateAssignment(ctx context.Context, body []byte) ([]models.Offer, error) {
	in, err := decodeInput(body)
	if err != nil {
		return nil, err
	}
	return s.assign(ctx, in.ToApplication())
}

// CalculateAssignmentFor scores a stored application.
func (s *Service) CalculateAssignmentFor(ctx context.Context, id string) ([]models.Offer, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assign(ctx, *app)
}

// Assign scores app against the current lenders.
func (s *Service) Assign(ctx context.Context, app models.Application) ([]models.Offer, error) {
	return s.assign(ctx, app)
}

func (s *Service) assign(ctx context.Context, app models.Application) ([]models.Offer, error) {
	lenders, err := s.lenders.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeOffers(app, lenders), nil
}

func (s *Service) RiskScore(ctx context.Context, body []byte) (*RiskAssessment, error) {
	in, err := decodeInput(body)
	if err != nil {
		return nil, err
	}
	return assess(in.ToApplication()), nil
}

func (s *Service) RiskScoreFor(ctx context.Context, id string) (*RiskAssessment, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return assess(*app), nil
}

func assess(app models.Application) *RiskAssessment {
	score := scoring.ComputeRiskScore(app)
	return &RiskAssessment{ApplicationID: app.ID, RiskScore: score, RiskLevel: scoring.RiskLevel(score)}
}

// Search queries the search index. An empty status matches every status.
func (s *Service) Search(ctx context.Context, query string, status models.Status) ([]models.Application, error) {
	if s.index == nil {
		return nil, errors.NewSearchUnavailableError()
	}
	if status != "" && !status.Valid() {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("unknown status %q", status))
	}
	return s.index.Search(ctx, query, status)
}

func (s *Service) statusChanged(ctx context.Context, app models.Application, previous models.Status) {
	metrics.ApplicationsByStatus.WithLabelValues(string(app.Status)).Inc()
	s.logger.Info("application status changed", map[string]interface{}{
		"applicationId":  app.ID,
		"previousStatus": previous,
		"status":         app.Status,
	})
	if s.notifier == nil {
		return
	}
	if err := s.notifier.StatusChanged(ctx, app, previous); err != nil {
		s.logger.Warn("status notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}

func (s *Service) reindex(ctx context.Context, app models.Application) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, app); err != nil {
		s.logger.Warn("search indexing failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}

func decodeInput(body []byte) (models.ApplicationInput, error) {
	var in models.ApplicationInput
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return in, errors.NewInvalidRequestError("Application data is required")
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return in, errors.NewInvalidRequestError(err.Error())
	}
	return in, nil
}

// merge overlays patch onto app's JSON form and re-normalises the result.
func merge(app models.Application, patch map[string]json.RawMessage) (models.Application, error) {
	raw, err := json.Marshal(app)
	if err != nil {
		return app, errors.NewInternalError(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return app, errors.NewInternalError(err)
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return app, errors.NewInternalError(err)
	}
	in, err := decodeInput(raw)
	if err != nil {
		return app, errors.NewApplicationValidationFailedError(err.Error())
	}
	return in.ToApplication(), nil
}

func validateApplication(app models.Application) error {
	err := validate.Struct(app)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewApplicationValidationFailedError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", lowerFirst(fe.Field()), fe.Tag()))
	}
	return errors.NewApplicationValidationFailedError(strings.Join(msgs, "; "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
