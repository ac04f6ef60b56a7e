// Package lenders manages the lender catalogue: seeding defaults, CRUD with
// protection of default lenders, and resetting to the defaults file.
package lenders

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/validation"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/store"
	"msme-lender-platform/pkg/lenderfile"
)

const protectedReason = "Default lender - protected from deletion"

// ResetResult reports what Reset restored.
type ResetResult struct {
	Lenders          []models.LenderConfig `json:"lenders"`
	RestoredDefaults int                   `json:"restoredDefaults"`
	PreservedUsers   int                   `json:"preservedUserLenders"`
}

type Service struct {
	store        store.LenderStore
	defaultsPath string
	logger       logger.Logger
	now          func() time.Time
}

func NewService(st store.LenderStore, defaultsPath string, log logger.Logger) *Service {
	return &Service{
		store:        st,
		defaultsPath: defaultsPath,
		logger:       log.WithFields(map[string]interface{}{"component": "lenders"}),
		now:          time.Now,
	}
}

// LoadDefaults reads the defaults file at path. Any failure falls back to
// the built-in lenders.
func LoadDefaults(path string, log logger.Logger) []models.LenderConfig {
	if path == "" {
		return lenderfile.Builtin()
	}
	f, err := lenderfile.Load(path)
	if err != nil {
		log.Warn("default lenders file unusable, using built-in defaults", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return lenderfile.Builtin()
	}
	if len(f.Lenders) == 0 {
		log.Warn("default lenders file is empty, using built-in defaults", map[string]interface{}{"path": path})
		return lenderfile.Builtin()
	}
	return f.Lenders
}

// LoadDefaults reads the service's configured defaults file.
func (s *Service) LoadDefaults() []models.LenderConfig {
	return LoadDefaults(s.defaultsPath, s.logger)
}

// Initialize seeds defaults into an empty store. A store that already holds
// lenders is left untouched.
func (s *Service) Initialize(ctx context.Context, defaults []models.LenderConfig) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return errors.NewQueryExecutionFailedError("count lenders", err)
	}
	if count > 0 {
		s.logger.Debug("lender store already initialized", map[string]interface{}{"count": count})
		return nil
	}

	seed := s.stampDefaults(defaults)
	if err := s.store.InsertMany(ctx, seed); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	s.logger.Info("default lenders initialized", map[string]interface{}{"count": len(seed)})
	return nil
}

func (s *Service) stampDefaults(defaults []models.LenderConfig) []models.LenderConfig {
	now := s.now().UTC()
	out := make([]models.LenderConfig, 0, len(defaults))
	for _, l := range defaults {
		l.IsDefault = true
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		l.UpdatedAt = now
		out = append(out, l)
	}
	return out
}

func (s *Service) List(ctx context.Context) ([]models.LenderConfig, error) {
	lenders, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list lenders", err)
	}
	return lenders, nil
}

// ListActive returns deduplicated active lenders, the input the scoring
// engine expects.
func (s *Service) ListActive(ctx context.Context) ([]models.LenderConfig, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]models.LenderConfig, 0, len(all))
	for _, l := range Deduplicate(all) {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.LenderConfig, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewLenderNotFoundError(id)
		}
		return nil, errors.NewQueryExecutionFailedError("get lender", err)
	}
	return l, nil
}

func (s *Service) Info(ctx context.Context, id string) (*models.LenderInfo, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.LenderInfo{LenderConfig: *l, Protection: Protection(*l)}, nil
}

// Protection reports whether a lender may be edited or deleted.
func Protection(l models.LenderConfig) models.LenderProtection {
	p := models.LenderProtection{IsDeletable: !l.IsDefault, IsEditable: true}
	if l.IsDefault {
		reason := protectedReason
		p.Reason = &reason
	}
	return p
}

// Create stores a new user lender. The id is generated and isDefault is
// always false; isActive defaults to true when omitted.
func (s *Service) Create(ctx context.Context, body []byte) (*models.LenderConfig, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	var l models.LenderConfig
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	var flags struct {
		IsActive *bool `json:"isActive"`
	}
	_ = json.Unmarshal(body, &flags)

	now := s.now().UTC()
	l.ID = uuid.New().String()
	l.IsDefault = false
	l.IsActive = flags.IsActive == nil || *flags.IsActive
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.store.Save(ctx, &l); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	s.logger.Info("lender created", map[string]interface{}{"lenderId": l.ID, "name": l.Name})
	return &l, nil
}

// Update merges body into the stored lender. id, isDefault and createdAt
// cannot be changed.
func (s *Service) Update(ctx context.Context, id string, body []byte) (*models.LenderConfig, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, errors.NewInvalidRequestError("request body must be a JSON object")
	}

	merged := *existing
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, errors.NewLenderValidationFailedError(err.Error())
	}
	merged.ID = existing.ID
	merged.IsDefault = existing.IsDefault
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = s.now().UTC()

	if merged.Name == "" {
		return nil, errors.NewLenderValidationFailedError("name: must not be empty")
	}
	if err := merged.Validate(); err != nil {
		return nil, errors.NewLenderValidationFailedError(err.Error())
	}

	if err := s.store.Save(ctx, &merged); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update lender", err)
	}
	s.logger.Info("lender updated", map[string]interface{}{"lenderId": id, "fields": len(patch)})
	return &merged, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.IsDefault {
		s.logger.Warn("refused to delete default lender", map[string]interface{}{"lenderId": id})
		return errors.NewLenderProtectedError(id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.NewLenderNotFoundError(id)
		}
		return errors.NewQueryExecutionFailedError("delete lender", err)
	}
	s.logger.Info("lender deleted", map[string]interface{}{"lenderId": id})
	return nil
}

func (s *Service) Deletable(ctx context.Context, id string) (*models.DeletableCheck, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	check := &models.DeletableCheck{ID: id, Deletable: !l.IsDefault}
	if l.IsDefault {
		msg := errors.NewLenderProtectedError(id).Message
		check.Reason = &msg
	}
	return check, nil
}

// Reset replaces the default lenders with those from the defaults file and
// keeps every user-added lender.
func (s *Service) Reset(ctx context.Context) (*ResetResult, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	preserved := 0
	for _, l := range all {
		if !l.IsDefault {
			preserved++
		}
	}

	defaults := s.stampDefaults(s.LoadDefaults())
	removed, err := s.store.ReplaceDefaults(ctx, defaults)
	if stderrors.Is(err, store.ErrInvalidDefaults) {
		return nil, errors.NewLenderConfigInvalidError(err.Error())
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("replace default lenders", err)
	}

	lenders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lenders reset to defaults", map[string]interface{}{
		"removedDefaults":  removed,
		"restoredDefaults": len(defaults),
		"preservedUsers":   preserved,
	})
	return &ResetResult{Lenders: lenders, RestoredDefaults: len(defaults), PreservedUsers: preserved}, nil
}

// Deduplicate drops lenders whose id was already seen. The first occurrence
// wins and order is preserved.
func Deduplicate(lenders []models.LenderConfig) []models.LenderConfig {
	seen := make(map[string]bool, len(lenders))
	out := make([]models.LenderConfig, 0, len(lenders))
	for _, l := range lenders {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

func validateBody(body []byte) error {
	res, err := validation.ValidateJSON(validation.SchemaLender, body)
	if err != nil {
		return errors.NewInvalidRequestError(err.Error())
	}
	if !res.Valid {
		return errors.NewLenderValidationFailedError(res.Summary())
	}
	return nil
}
