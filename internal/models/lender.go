// internal/models/lender.go
package models

import (
	"fmt"
	"time"
)

type CreditScoreMultipliers struct {
	High   float64 `json:"high" bson:"high"`
	Medium float64 `json:"medium" bson:"medium"`
	Low    float64 `json:"low" bson:"low"`
}

// CreditScoreBands holds the band thresholds, evaluated high then medium.
type CreditScoreBands struct {
	High        float64                `json:"high" bson:"high"`
	Medium      float64                `json:"medium" bson:"medium"`
	Multipliers CreditScoreMultipliers `json:"multipliers" bson:"multipliers"`
}

// DocumentMultipliers are keyed by the number of qualifying documents.
type DocumentMultipliers struct {
	All4   float64 `json:"all4" bson:"all4"`
	Any3   float64 `json:"any3" bson:"any3"`
	Any2   float64 `json:"any2" bson:"any2"`
	OnlyCR float64 `json:"onlyCR" bson:"onlyCR"`
}

type AvailabilityMultipliers struct {
	Available    float64 `json:"available" bson:"available"`
	NotAvailable float64 `json:"notAvailable" bson:"notAvailable"`
}

type LenderConfig struct {
	ID            string                  `json:"id" bson:"_id"`
	Name          string                  `json:"name" bson:"name"`
	IsActive      bool                    `json:"isActive" bson:"isActive"`
	IsDefault     bool                    `json:"isDefault" bson:"isDefault"`
	CreditScore   CreditScoreBands        `json:"creditScore" bson:"creditScore"`
	Documents     DocumentMultipliers     `json:"documents" bson:"documents"`
	BankStatement AvailabilityMultipliers `json:"bankStatement" bson:"bankStatement"`
	AuditedReport AvailabilityMultipliers `json:"auditedReport" bson:"auditedReport"`
	CreatedAt     time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks that every multiplier is present and positive.
// A zero multiplier is treated as missing.
func (l LenderConfig) Validate() error {
	multipliers := []struct {
		field string
		value float64
	}{
		{"creditScore.multipliers.high", l.CreditScore.Multipliers.High},
		{"creditScore.multipliers.medium", l.CreditScore.Multipliers.Medium},
		{"creditScore.multipliers.low", l.CreditScore.Multipliers.Low},
		{"documents.all4", l.Documents.All4},
		{"documents.any3", l.Documents.Any3},
		{"documents.any2", l.Documents.Any2},
		{"documents.onlyCR", l.Documents.OnlyCR},
		{"bankStatement.available", l.BankStatement.Available},
		{"bankStatement.notAvailable", l.BankStatement.NotAvailable},
		{"auditedReport.available", l.AuditedReport.Available},
		{"auditedReport.notAvailable", l.AuditedReport.NotAvailable},
	}
	for _, m := range multipliers {
		if m.value <= 0 {
			return fmt.Errorf("lender %q: %s must be a positive number, got %v", l.ID, m.field, m.value)
		}
	}
	return nil
}

// LenderProtection describes what callers may do with a lender.
type LenderProtection struct {
	IsDeletable bool    `json:"isDeletable"`
	IsEditable  bool    `json:"isEditable"`
	Reason      *string `json:"reason"`
}

type LenderInfo struct {
	LenderConfig
	Protection LenderProtection `json:"protection"`
}

type DeletableCheck struct {
	ID        string  `json:"id"`
	Deletable bool    `json:"deletable"`
	Reason    *string `json:"reason"`
}
