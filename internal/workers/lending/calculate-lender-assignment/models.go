// internal/workers/lending/calculate-lender-assignment/models.go
package calculatelenderassignment

import (
	"encoding/json"

	"msme-lender-platform/internal/models"
)

// Input names a stored application or carries one inline.
type Input struct {
	ApplicationID string          `json:"applicationId,omitempty"`
	Application   json.RawMessage `json:"application,omitempty"`
}

type Output struct {
	ApplicationID string         `json:"applicationId,omitempty"`
	Offers        []models.Offer `json:"offers"`
	OfferCount    int            `json:"offerCount"`
	TopOffer      *models.Offer  `json:"topOffer"`
}
