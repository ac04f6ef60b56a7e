// pkg/lenderfile/builtin.go
package lenderfile

import "msme-lender-platform/internal/models"

// Stable ids of the built-in lenders.
const (
	Lender1ID = "550e8400-e29b-41d4-a716-446655440001"
	Lender2ID = "550e8400-e29b-41d4-a716-446655440002"
	Lender3ID = "550e8400-e29b-41d4-a716-446655440003"
)

// Builtin returns the lenders used when no defaults file can be read.
func Builtin() []models.LenderConfig {
	return []models.LenderConfig{
		{
			ID: Lender1ID, Name: "Lender 1", IsActive: true, IsDefault: true,
			CreditScore: models.CreditScoreBands{
				High: 725, Medium: 700,
				Multipliers: models.CreditScoreMultipliers{High: 1.5, Medium: 1.2, Low: 0.9},
			},
			Documents:     models.DocumentMultipliers{All4: 1.25, Any3: 1.1, Any2: 1.05, OnlyCR: 1.0},
			BankStatement: models.AvailabilityMultipliers{Available: 1.2, NotAvailable: 1.0},
			AuditedReport: models.AvailabilityMultipliers{Available: 1.5, NotAvailable: 1.0},
		},
		{
			ID: Lender2ID, Name: "Lender 2", IsActive: true, IsDefault: true,
			CreditScore: models.CreditScoreBands{
				High: 750, Medium: 700,
				Multipliers: models.CreditScoreMultipliers{High: 1.6, Medium: 1.25, Low: 0.8},
			},
			Documents:     models.DocumentMultipliers{All4: 1.5, Any3: 1.2, Any2: 1.05, OnlyCR: 1.0},
			BankStatement: models.AvailabilityMultipliers{Available: 1.25, NotAvailable: 1.0},
			AuditedReport: models.AvailabilityMultipliers{Available: 1.25, NotAvailable: 1.0},
		},
		{
			ID: Lender3ID, Name: "Lender 3", IsActive: true, IsDefault: true,
			CreditScore: models.CreditScoreBands{
				High: 740, Medium: 700,
				Multipliers: models.CreditScoreMultipliers{High: 1.4, Medium: 1.1, Low: 0.9},
			},
			Documents:     models.DocumentMultipliers{All4: 1.3, Any3: 1.15, Any2: 1.05, OnlyCR: 1.0},
			BankStatement: models.AvailabilityMultipliers{Available: 1.2, NotAvailable: 1.0},
			AuditedReport: models.AvailabilityMultipliers{Available: 1.4, NotAvailable: 1.0},
		},
	}
}
