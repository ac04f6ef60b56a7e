// internal/models/offer.go
package models

type Offer struct {
	LenderID    string   `json:"lenderId"`
	LenderName  string   `json:"lenderName"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`
	Multiplier  float64  `json:"multiplier"`
	CreditLimit int64    `json:"creditLimit"`
	MaxAmount   int64    `json:"maxAmount"`
	Terms       string   `json:"terms"`
}

// SkippedLender records a lender left out of an evaluation.
type SkippedLender struct {
	LenderID string `json:"lenderId"`
	Reason   string `json:"reason"`
}
