// internal/models/models_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLender() LenderConfig {
	return LenderConfig{
		ID:       "lender-1",
		Name:     "Lender 1",
		IsActive: true,
		CreditScore: CreditScoreBands{
			High:        725,
			Medium:      700,
			Multipliers: CreditScoreMultipliers{High: 1.5, Medium: 1.2, Low: 0.9},
		},
		Documents:     DocumentMultipliers{All4: 1.25, Any3: 1.1, Any2: 1.05, OnlyCR: 1.0},
		BankStatement: AvailabilityMultipliers{Available: 1.2, NotAvailable: 1.0},
		AuditedReport: AvailabilityMultipliers{Available: 1.5, NotAvailable: 1.0},
	}
}

func TestLenderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *LenderConfig)
		wantErr string
	}{
		{"valid", func(l *LenderConfig) {}, ""},
		{"missing band multiplier", func(l *LenderConfig) { l.CreditScore.Multipliers.Medium = 0 }, "creditScore.multipliers.medium"},
		{"negative document multiplier", func(l *LenderConfig) { l.Documents.Any2 = -1 }, "documents.any2"},
		{"missing audited multiplier", func(l *LenderConfig) { l.AuditedReport.NotAvailable = 0 }, "auditedReport.notAvailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLender()
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocuments_QualifyingCount(t *testing.T) {
	assert.Equal(t, 0, Documents{}.QualifyingCount())
	assert.Equal(t, 0, Documents{BankStatement: true, AuditedReport: true}.QualifyingCount())
	assert.Equal(t, 1, Documents{TaxCertificate: true}.QualifyingCount())
	assert.Equal(t, 4, Documents{
		CommercialRegistration: true,
		TradeLicense:           true,
		TaxCertificate:         true,
		FinancialStatements:    true,
	}.QualifyingCount())
}

func TestApplicationInput_ToApplication(t *testing.T) {
	body := `{
		"companyName": " Acme Trading ",
		"contactPerson": "Sara",
		"email": "Sara@Acme.QA",
		"monthlyTransaction": "120,000",
		"creditScore": "710",
		"annualRevenue": 900000,
		"companyAge": "3",
		"documents": {"commercialRegistration": true, "tradeLicense": "true", "bankStatement": "false"}
	}`

	var in ApplicationInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	app := in.ToApplication()

	assert.Equal(t, "Acme Trading", app.CompanyName)
	assert.Equal(t, "sara@acme.qa", app.Email)
	assert.Equal(t, 120000.0, app.MonthlyTransaction)
	assert.Equal(t, 710, app.CreditScore)
	assert.Equal(t, 900000.0, app.AnnualRevenue)
	assert.Equal(t, 3.0, app.CompanyAge)
	assert.True(t, app.Documents.CommercialRegistration)
	assert.True(t, app.Documents.TradeLicense)
	assert.False(t, app.Documents.BankStatement)
	assert.NotNil(t, app.UploadedFiles)
}

func TestApplicationInput_ToApplication_UnparseableNumbersBecomeZero(t *testing.T) {
	in := ApplicationInput{MonthlyTransaction: "lots", CreditScore: nil}
	app := in.ToApplication()

	assert.Zero(t, app.MonthlyTransaction)
	assert.Zero(t, app.CreditScore)
	assert.Equal(t, Documents{}, app.Documents)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusUnderReview, true},
		{StatusPending, StatusApproved, true},
		{StatusUnderReview, StatusRejected, true},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusUnderReview, true},
		{StatusApproved, StatusApproved, true},
		{StatusPending, Status("archived"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
