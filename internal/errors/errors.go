// internal/errors/errors.go
package appErrors

import "fmt"

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

// InvalidStateError rejects a warmup operation that has no transition from
// the current status. Nothing is mutated before it is returned.
type InvalidStateError struct {
	Current   string
	Requested string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid warmup state: cannot %s while %s", e.Requested, e.Current)
}

func NewInvalidState(current, requested string) error {
	return &InvalidStateError{Current: current, Requested: requested}
}

// ErrMissingConfig is raised at startup when a required setting is absent.
type ErrMissingConfig struct {
	Key string
}

func (e *ErrMissingConfig) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}

func NewMissingConfig(key string) error {
	return &ErrMissingConfig{Key: key}
}
