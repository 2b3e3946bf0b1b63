// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrNoAccessToken means no Instagram access token is configured anywhere.
// It is fatal for a whole comment-processing invocation and must surface
// before any campaign is evaluated.
var ErrNoAccessToken = errors.New("no instagram access token configured")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}
