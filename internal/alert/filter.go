package alert

import (
	"fmt"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// TypeFilter drops alerts whose type is switched off
type TypeFilter struct {
	enabled map[models.AlertType]bool
}

// NewTypeFilter enables the given types, or the per-type defaults when types is empty
func NewTypeFilter(types []string) (*TypeFilter, error) {
	enabled := make(map[models.AlertType]bool, len(models.AlertTypes))
	if len(types) == 0 {
		for _, t := range models.AlertTypes {
			enabled[t] = DefaultEnabled(t)
		}
		return &TypeFilter{enabled: enabled}, nil
	}

	for _, raw := range types {
		t := models.AlertType(raw)
		if !knownType(t) {
			return nil, fmt.Errorf("unknown alert type: %s", raw)
		}
		enabled[t] = true
	}
	return &TypeFilter{enabled: enabled}, nil
}

func knownType(t models.AlertType) bool {
	for _, known := range models.AlertTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Enabled reports whether alerts of type t pass
func (f *TypeFilter) Enabled(t models.AlertType) bool {
	return f.enabled[t]
}

// EnabledTypes lists the enabled types in evaluation order
func (f *TypeFilter) EnabledTypes() []models.AlertType {
	var out []models.AlertType
	for _, t := range models.AlertTypes {
		if f.enabled[t] {
			out = append(out, t)
		}
	}
	return out
}

// FilterAlerts returns the alerts whose type is enabled
func (f *TypeFilter) FilterAlerts(alerts []*models.Alert) []*models.Alert {
	filtered := make([]*models.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if f.Enabled(alert.Type) {
			filtered = append(filtered, alert)
		}
	}
	return filtered
}
