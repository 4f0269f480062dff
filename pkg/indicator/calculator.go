package indicator

import (
	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Calculator is the interface for computing technical indicators over a
// price history. Each indicator type implements this interface.
type Calculator interface {
	// Name returns the unique name of this indicator (e.g., "rsi_14", "ema_20")
	Name() string

	// Update processes the next price point and returns the new value,
	// or 0 if not enough data has been processed yet
	Update(point *models.PricePoint) (float64, error)

	// Value returns the current indicator value
	// Returns 0 and error if not enough data has been processed
	Value() (float64, error)

	// Reset clears the indicator state
	Reset()

	// IsReady returns true if the indicator has enough data to produce a valid value
	IsReady() bool
}
