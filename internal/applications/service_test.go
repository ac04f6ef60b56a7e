package applications

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/lenders"
	"msme-lender-platform/internal/models"
	"msme-lender-platform/internal/scoring"
	"msme-lender-platform/internal/store/memory"
	"msme-lender-platform/pkg/lenderfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) StatusChanged(ctx context.Context, app models.Application, previous models.Status) error {
	args := m.Called(ctx, app, previous)
	return args.Error(0)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Index(ctx context.Context, app models.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *MockIndex) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockIndex) Search(ctx context.Context, query string, status models.Status) ([]models.Application, error) {
	args := m.Called(ctx, query, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

// ==========================
// Helpers
// ==========================

const validApplication = `{
	"companyName": "Doha Trading",
	"contactPerson": "Amal",
	"email": "Owner@DohaTrading.qa",
	"phone": "+97455550000",
	"industry": "Retail",
	"region": "Doha",
	"companyAge": "6",
	"annualRevenue": "2,000,000",
	"invoiceAmount": 50000,
	"monthlyTransaction": 100000,
	"creditScore": 760,
	"documents": {"commercialRegistration": true, "tradeLicense": true, "taxCertificate": true, "financialStatements": true, "bankStatement": true, "auditedReport": true},
	"status": "approved"
}`

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	log := logger.NewTestLogger(t)
	lenderSvc := lenders.NewService(memory.NewLenderStore(), "", log)
	require.NoError(t, lenderSvc.Initialize(context.Background(), lenderfile.Builtin()))

	svc := NewService(memory.NewApplicationStore(), lenderSvc, scoring.NewEngine(scoring.DefaultOptions(), log), log, opts...)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func createApp(t *testing.T, svc *Service) *models.Application {
	t.Helper()
	app, err := svc.Create(context.Background(), []byte(validApplication))
	require.NoError(t, err)
	return app
}

// ==========================
// Tests
// ==========================

func TestCreate(t *testing.T) {
	svc := newTestService(t)
	app := createApp(t, svc)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, "owner@dohatrading.qa", app.Email)
	assert.Equal(t, 2000000.0, app.AnnualRevenue)
	assert.Equal(t, 6.0, app.CompanyAge)
	assert.True(t, app.Documents.AuditedReport)
	assert.False(t, app.CreatedAt.IsZero())

	stored, err := svc.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, stored.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"array body", `[1, 2]`, errors.ErrCodeInvalidRequest},
		{"empty body", ``, errors.ErrCodeInvalidRequest},
		{"missing company", `{"contactPerson": "a", "email": "a@b.qa"}`, errors.ErrCodeApplicationValidationFailed},
		{"bad email", `{"companyName": "c", "contactPerson": "a", "email": "not-an-email"}`, errors.ErrCodeApplicationValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	app := createApp(t, svc)

	updated, err := svc.Update(ctx, app.ID, []byte(`{
		"id": "changed",
		"region": "Al Wakrah",
		"assignedLender": {"lenderId": "l1", "lenderName": "Lender 1", "creditLimit": 150000, "terms": "t"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, app.ID, updated.ID)
	assert.Equal(t, "Al Wakrah", updated.Region)
	assert.Equal(t, "Doha Trading", updated.CompanyName)
	assert.Equal(t, app.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.AssignedLender)
	assert.Equal(t, "l1", updated.AssignedLender.LenderID)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	app := createApp(t, svc)

	_, err := svc.Update(ctx, app.ID, []byte(`{"status": "approved"}`))
	require.NoError(t, err)

	_, err = svc.Update(ctx, app.ID, []byte(`{"status": "rejected"}`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidStatusTransition))

	_, err = svc.Update(ctx, app.ID, []byte(`{"status": "archived"}`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeApplicationValidationFailed))

	_, err = svc.Update(ctx, "missing", []byte(`{"status": "approved"}`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeApplicationNotFound))

	_, err = svc.Update(ctx, app.ID, []byte(`"status"`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestUpdate_NotifiesAndReindexesOnStatusChange(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	index := new(MockIndex)
	index.On("Index", mock.Anything, mock.Anything).Return(nil)
	notifier.On("StatusChanged", mock.Anything, mock.MatchedBy(func(a models.Application) bool {
		return a.Status == models.StatusUnderReview
	}), models.StatusPending).Return(stderrors.New("ses down"))

	svc := newTestService(t, WithNotifier(notifier), WithIndex(index))
	app := createApp(t, svc)

	updated, err := svc.Update(ctx, app.ID, []byte(`{"status": "under_review"}`))
	require.NoError(t, err, "notification failures must not fail the update")
	assert.Equal(t, models.StatusUnderReview, updated.Status)

	_, err = svc.Update(ctx, app.ID, []byte(`{"region": "Lusail"}`))
	require.NoError(t, err)

	notifier.AssertNumberOfCalls(t, "StatusChanged", 1)
	index.AssertNumberOfCalls(t, "Index", 3)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	app := createApp(t, svc)

	change, err := svc.SetStatus(ctx, app.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, change.PreviousStatus)
	assert.Equal(t, models.StatusRejected, change.Application.Status)

	_, err = svc.SetStatus(ctx, app.ID, "bogus")
	assert.True(t, errors.HasCode(err, errors.ErrCodeApplicationValidationFailed))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	index.On("Index", mock.Anything, mock.Anything).Return(nil)
	index.On("Delete", mock.Anything, mock.Anything).Return(stderrors.New("es down"))

	svc := newTestService(t, WithIndex(index))
	app := createApp(t, svc)

	require.NoError(t, svc.Delete(ctx, app.ID))
	index.AssertCalled(t, "Delete", mock.Anything, app.ID)

	err := svc.Delete(ctx, app.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeApplicationNotFound))
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	first := createApp(t, svc)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	second := createApp(t, svc)

	apps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)
}

func TestCalculateAssignment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	offers, err := svc.CalculateAssignment(ctx, []byte(validApplication))
	require.NoError(t, err)
	require.Len(t, offers, 3)
	for i := 1; i < len(offers); i++ {
		assert.GreaterOrEqual(t, offers[i-1].Score, offers[i].Score)
	}

	app := createApp(t, svc)
	stored, err := svc.CalculateAssignmentFor(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, offers, stored)

	_, err = svc.CalculateAssignment(ctx, []byte(`"x"`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = svc.CalculateAssignmentFor(ctx, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeApplicationNotFound))
}

func TestCalculateAssignment_EmptyPayloadUsesDefaults(t *testing.T) {
	offers, err := newTestService(t).CalculateAssignment(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.NotEmpty(t, offers)
}

func TestRiskScore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	risk, err := svc.RiskScore(ctx, []byte(validApplication))
	require.NoError(t, err)
	// age 6 (-10), revenue 2M (-15), ratio 0.025 (-10)
	assert.Equal(t, 15, risk.RiskScore)
	assert.Equal(t, "low", risk.RiskLevel)

	app := createApp(t, svc)
	stored, err := svc.RiskScoreFor(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.RiskScore)
	assert.Equal(t, app.ID, stored.ApplicationID)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(t).Search(ctx, "doha", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchUnavailable))

	index := new(MockIndex)
	index.On("Search", mock.Anything, "doha", models.StatusPending).
		Return([]models.Application{{ID: "a1"}}, nil)
	svc := newTestService(t, WithIndex(index))

	results, err := svc.Search(ctx, "doha", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = svc.Search(ctx, "doha", "bogus")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
	index.AssertExpectations(t)
}
