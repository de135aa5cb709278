package prompts

import (
	"fmt"

	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
)

// Override is the persisted single-slot selected-prompt override. It takes
// precedence over the daily rotation and survives restarts; only an explicit
// Clear (or a recording session configured to consume it) removes it.
type Override struct {
	state *repositories.StateRepository
}

// NewOverride creates an override backed by the state repository.
func NewOverride(state *repositories.StateRepository) *Override {
	return &Override{state: state}
}

// Set stores text as the active override.
func (o *Override) Set(text string) error {
	if text == "" {
		return fmt.Errorf("%w: override text is empty", shared.ErrInvalidInput)
	}
	return o.state.Set(stateKeyOverride, text)
}

// Get returns the active override, if any.
func (o *Override) Get() (string, bool, error) {
	return o.state.Get(stateKeyOverride)
}

// Clear removes the override. Clearing an empty slot is a no-op.
func (o *Override) Clear() error {
	return o.state.Delete(stateKeyOverride)
}

// Effective resolves the prompt shown to the user: the override when one is
// set, otherwise the supply service's daily prompt.
func Effective(override *Override, supply *SupplyService) (string, error) {
	if text, ok, err := override.Get(); err != nil {
		return "", err
	} else if ok {
		return text, nil
	}
	return supply.CurrentPrompt()
}
