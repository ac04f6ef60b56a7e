// internal/scoring/risk.go
package scoring

import (
	"msme-lender-platform/internal/common/numeric"
	"msme-lender-platform/internal/models"
)

const baseRiskScore = 50

// ComputeRiskScore returns a 0-100 risk indicator. Higher is riskier.
func ComputeRiskScore(app models.Application) int {
	score := baseRiskScore

	age := int(app.CompanyAge)
	switch {
	case age > 5:
		score -= 10
	case age < 2:
		score += 15
	}

	revenue := app.AnnualRevenue
	switch {
	case revenue > 1_000_000:
		score -= 15
	case revenue < 100_000:
		score += 20
	}

	ratio := 1.0
	if revenue > 0 {
		ratio = app.InvoiceAmount / revenue
	}
	switch {
	case ratio > 0.5:
		score += 25
	case ratio < 0.1:
		score -= 10
	}

	return numeric.Clamp(score, 0, 100)
}

// RiskLevel buckets a risk score for display.
func RiskLevel(score int) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}
