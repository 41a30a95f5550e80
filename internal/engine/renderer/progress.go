package renderer

import (
	"fmt"
	gomath "math"
)

// ProgressLabel formats a load ratio as the overlay text shown while an
// asset streams in.
func ProgressLabel(progress float64) string {
	if gomath.IsNaN(progress) || progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return fmt.Sprintf("Loading… %d%%", int(gomath.Round(progress*100)))
}
