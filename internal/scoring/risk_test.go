// internal/scoring/risk_test.go
package scoring

import (
	"testing"

	"msme-lender-platform/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeRiskScore(t *testing.T) {
	tests := []struct {
		name string
		app  models.Application
		want int
	}{
		{
			name: "neutral profile",
			app:  models.Application{CompanyAge: 3, AnnualRevenue: 500000, InvoiceAmount: 100000},
			want: 50,
		},
		{
			name: "established high revenue small invoice",
			app:  models.Application{CompanyAge: 10, AnnualRevenue: 2000000, InvoiceAmount: 100000},
			want: 15,
		},
		{
			name: "young low revenue large invoice clamps to 100",
			app:  models.Application{CompanyAge: 1, AnnualRevenue: 50000, InvoiceAmount: 40000},
			want: 100,
		},
		{
			name: "no data treats ratio as 1",
			app:  models.Application{},
			want: 100,
		},
		{
			name: "boundaries carry no adjustment",
			app:  models.Application{CompanyAge: 5, AnnualRevenue: 1000000, InvoiceAmount: 500000},
			want: 50,
		},
		{
			name: "fractional age truncates",
			app:  models.Application{CompanyAge: 5.9, AnnualRevenue: 500000, InvoiceAmount: 100000},
			want: 50,
		},
		{
			name: "age two is not young",
			app:  models.Application{CompanyAge: 2, AnnualRevenue: 100000, InvoiceAmount: 60000},
			want: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRiskScore(tt.app)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "high", RiskLevel(100))
	assert.Equal(t, "high", RiskLevel(70))
	assert.Equal(t, "medium", RiskLevel(50))
	assert.Equal(t, "low", RiskLevel(15))
}
