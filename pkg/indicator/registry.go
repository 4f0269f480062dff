package indicator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Registry manages indicator calculators
type Registry struct {
	mu          sync.RWMutex
	calculators map[string]Calculator
}

// NewRegistry creates a new indicator registry
func NewRegistry() *Registry {
	return &Registry{
		calculators: make(map[string]Calculator),
	}
}

// Register registers a calculator with the registry
func (r *Registry) Register(calc Calculator) error {
	if calc == nil {
		return fmt.Errorf("calculator cannot be nil")
	}

	name := calc.Name()
	if name == "" {
		return fmt.Errorf("calculator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[name]; exists {
		return fmt.Errorf("calculator with name %q already registered", name)
	}

	r.calculators[name] = calc
	return nil
}

// Get retrieves a calculator by name
func (r *Registry) Get(name string) (Calculator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, exists := r.calculators[name]
	if !exists {
		return nil, fmt.Errorf("calculator %q not found", name)
	}

	return calc, nil
}

// List returns the registered calculator names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.calculators))
	for name := range r.calculators {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Unregister removes a calculator from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[name]; !exists {
		return fmt.Errorf("calculator %q not found", name)
	}

	delete(r.calculators, name)
	return nil
}

// UpdateAll feeds one point to every registered calculator.
// The first calculator error aborts the update.
func (r *Registry) UpdateAll(point *models.PricePoint) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, calc := range r.calculators {
		if _, err := calc.Update(point); err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
	}
	return nil
}

// Values returns the current value of every ready calculator
func (r *Registry) Values() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make(map[string]float64, len(r.calculators))
	for name, calc := range r.calculators {
		if !calc.IsReady() {
			continue
		}
		if v, err := calc.Value(); err == nil {
			values[name] = v
		}
	}
	return values
}

// ResetAll clears the state of every registered calculator
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, calc := range r.calculators {
		calc.Reset()
	}
}
