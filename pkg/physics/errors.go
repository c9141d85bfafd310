package physics

import (
	"fmt"

	"github.com/raterudder/energysim/pkg/types"
)

// ErrInvalidInput is wrapped by every precondition violation.
var ErrInvalidInput = types.ErrInvalidInput

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// ConservationWarning reports a timestep whose energy balance did not close.
// It is diagnostic: the step that produced it still returns a valid state.
type ConservationWarning struct {
	Timestep int
	InKW     float64 // pv + discharge + import
	OutKW    float64 // load + charge + export
}

// ErrorKW is the absolute imbalance.
func (w *ConservationWarning) ErrorKW() float64 {
	d := w.InKW - w.OutKW
	if d < 0 {
		return -d
	}
	return d
}

func (w *ConservationWarning) Error() string {
	return fmt.Sprintf(
		"energy balance violation at timestep %d: in=%.6f kW out=%.6f kW error=%.6f kW",
		w.Timestep, w.InKW, w.OutKW, w.ErrorKW(),
	)
}
