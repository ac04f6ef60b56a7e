// internal/scoring/offers.go
package scoring

import (
	"fmt"
	"sort"
	"strconv"

	"msme-lender-platform/internal/common/numeric"
	"msme-lender-platform/internal/models"
)

const (
	DefaultCreditScore        = 650
	DefaultMonthlyTransaction = 50000.0

	SkipReasonInactive      = "inactive"
	SkipReasonInvalidConfig = "invalid_config"
)

// Options tunes post-processing of computed offers. Zero fields take the
// value from DefaultOptions, so a MinScore of 0 means 10.
type Options struct {
	Currency  string
	MaxOffers int
	MinScore  float64
}

func DefaultOptions() Options {
	return Options{
		Currency:  "QAR",
		MaxOffers: 5,
		MinScore:  10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Currency == "" {
		o.Currency = d.Currency
	}
	if o.MaxOffers <= 0 {
		o.MaxOffers = d.MaxOffers
	}
	if o.MinScore <= 0 {
		o.MinScore = d.MinScore
	}
	return o
}

// Evaluation is the full result of scoring one application.
type Evaluation struct {
	Offers       []models.Offer         `json:"offers"`
	Skipped      []models.SkippedLender `json:"skipped,omitempty"`
	DuplicateIDs []string               `json:"duplicateIds,omitempty"`
}

// ComputeOffers ranks lenders for app with the default options.
func ComputeOffers(app models.Application, lenders []models.LenderConfig) []models.Offer {
	return Evaluate(app, lenders, DefaultOptions()).Offers
}

// Evaluate scores every active, valid lender, keeps offers scoring strictly
// above opts.MinScore, sorts them by score descending (ties keep input
// order) and truncates to opts.MaxOffers. Inputs are not modified.
func Evaluate(app models.Application, lenders []models.LenderConfig, opts Options) Evaluation {
	opts = opts.withDefaults()

	ev := Evaluation{
		Offers:       make([]models.Offer, 0, len(lenders)),
		DuplicateIDs: DuplicateIDs(lenders),
	}

	creditScore := EffectiveCreditScore(app)
	monthly := EffectiveMonthlyTransaction(app)

	for _, lender := range lenders {
		if !lender.IsActive {
			ev.Skipped = append(ev.Skipped, models.SkippedLender{LenderID: lender.ID, Reason: SkipReasonInactive})
			continue
		}
		if err := lender.Validate(); err != nil {
			ev.Skipped = append(ev.Skipped, models.SkippedLender{LenderID: lender.ID, Reason: SkipReasonInvalidConfig + ": " + err.Error()})
			continue
		}

		offer := scoreLender(creditScore, monthly, app.Documents, lender, opts.Currency)
		if offer.Score > opts.MinScore {
			ev.Offers = append(ev.Offers, offer)
		}
	}

	sort.SliceStable(ev.Offers, func(i, j int) bool {
		return ev.Offers[i].Score > ev.Offers[j].Score
	})
	if len(ev.Offers) > opts.MaxOffers {
		ev.Offers = ev.Offers[:opts.MaxOffers]
	}
	return ev
}

func scoreLender(creditScore int, monthly float64, docs models.Documents, lender models.LenderConfig, currency string) models.Offer {
	score := 0.0
	multiplier := 1.0
	reasons := make([]string, 0, 4)

	bands := lender.CreditScore
	switch cs := float64(creditScore); {
	case cs >= bands.High:
		score += 40
		multiplier *= bands.Multipliers.High
		reasons = append(reasons, fmt.Sprintf("High credit score (%d)", creditScore))
	case cs >= bands.Medium:
		score += 25
		multiplier *= bands.Multipliers.Medium
		reasons = append(reasons, fmt.Sprintf("Medium credit score (%d)", creditScore))
	default:
		score += 10
		multiplier *= bands.Multipliers.Low
		reasons = append(reasons, fmt.Sprintf("Low credit score (%d)", creditScore))
	}

	// counts below two fall through to the onlyCR tier whether or not CR is present
	switch docs.QualifyingCount() {
	case 4:
		score += 25
		multiplier *= lender.Documents.All4
		reasons = append(reasons, "All 4 required documents provided")
	case 3:
		score += 20
		multiplier *= lender.Documents.Any3
		reasons = append(reasons, "3 required documents provided")
	case 2:
		score += 15
		multiplier *= lender.Documents.Any2
		reasons = append(reasons, "2 required documents provided")
	default:
		score += 5
		multiplier *= lender.Documents.OnlyCR
		reasons = append(reasons, "Only CR provided")
	}

	if docs.BankStatement {
		score += 20
		multiplier *= lender.BankStatement.Available
		reasons = append(reasons, "Bank statements available")
	} else {
		score += 5
		multiplier *= lender.BankStatement.NotAvailable
		reasons = append(reasons, "No bank statements")
	}

	// the missing-report branch adds no reason
	if docs.AuditedReport {
		score += 15
		multiplier *= lender.AuditedReport.Available
		reasons = append(reasons, "Audited reports available")
	} else {
		multiplier *= lender.AuditedReport.NotAvailable
	}

	creditLimit := numeric.RoundInt(monthly * multiplier)
	roundedMultiplier := numeric.Round(multiplier, 2)

	return models.Offer{
		LenderID:    lender.ID,
		LenderName:  lender.Name,
		Score:       numeric.Round(score*multiplier, 2),
		Reasons:     reasons,
		Multiplier:  roundedMultiplier,
		CreditLimit: creditLimit,
		MaxAmount:   creditLimit,
		Terms:       FormatTerms(currency, creditLimit, roundedMultiplier),
	}
}

// FormatTerms renders e.g. "Credit limit: QAR 150,000, Multiplier: 1.5x".
func FormatTerms(currency string, creditLimit int64, multiplier float64) string {
	return fmt.Sprintf("Credit limit: %s %s, Multiplier: %sx",
		currency, numeric.Grouped(creditLimit), strconv.FormatFloat(multiplier, 'f', -1, 64))
}

// EffectiveCreditScore applies the default when the score is unset.
func EffectiveCreditScore(app models.Application) int {
	return int(numeric.OrDefault(float64(app.CreditScore), DefaultCreditScore))
}

// EffectiveMonthlyTransaction applies the default when the volume is unset
// or not a finite number.
func EffectiveMonthlyTransaction(app models.Application) float64 {
	return numeric.OrDefault(app.MonthlyTransaction, DefaultMonthlyTransaction)
}

// DuplicateIDs lists lender ids that occur more than once, in order of
// first repetition. Lenders are not deduplicated.
func DuplicateIDs(lenders []models.LenderConfig) []string {
	seen := make(map[string]int, len(lenders))
	var dups []string
	for _, l := range lenders {
		seen[l.ID]++
		if seen[l.ID] == 2 {
			dups = append(dups, l.ID)
		}
	}
	return dups
}
