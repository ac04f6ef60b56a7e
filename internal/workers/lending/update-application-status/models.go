// internal/workers/lending/update-application-status/models.go
package updateapplicationstatus

import "msme-lender-platform/internal/models"

type Input struct {
	ApplicationID string        `json:"applicationId"`
	Status        models.Status `json:"status"`
}

type Output struct {
	ApplicationID  string        `json:"applicationId"`
	PreviousStatus models.Status `json:"previousStatus"`
	Status         models.Status `json:"status"`
	UpdatedAt      string        `json:"updatedAt"`
}
