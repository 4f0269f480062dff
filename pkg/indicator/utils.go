package indicator

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// formatDuration formats a duration for use in indicator names
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 || hours%24 != 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd", hours/24)
}

// timeWindow keeps the points whose timestamp falls within span of the newest one.
type timeWindow struct {
	span   time.Duration
	points []models.PricePoint
}

func (w *timeWindow) push(p models.PricePoint) {
	w.points = append(w.points, p)
	cutoff := p.Timestamp.Add(-w.span)
	drop := 0
	for drop < len(w.points) && w.points[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		w.points = append(w.points[:0], w.points[drop:]...)
	}
}

func (w *timeWindow) reset() {
	w.points = w.points[:0]
}

// pointsFor estimates how many samples a span covers at the given spacing.
func pointsFor(span, spacing time.Duration, min int) int {
	if spacing <= 0 {
		return min
	}
	n := int(span / spacing)
	if n < min {
		return min
	}
	return n
}
