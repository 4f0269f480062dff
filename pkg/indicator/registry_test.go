package indicator

import (
	"errors"
	"testing"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// mockCalculator is a mock calculator for testing
type mockCalculator struct {
	name      string
	value     float64
	ready     bool
	updates   int
	updateErr error
}

func (m *mockCalculator) Name() string { return m.name }

func (m *mockCalculator) Update(point *models.PricePoint) (float64, error) {
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	m.updates++
	m.value = point.Price
	m.ready = true
	return m.value, nil
}

func (m *mockCalculator) Value() (float64, error) {
	if !m.ready {
		return 0, errors.New("not ready")
	}
	return m.value, nil
}

func (m *mockCalculator) Reset() {
	m.value = 0
	m.ready = false
	m.updates = 0
}

func (m *mockCalculator) IsReady() bool { return m.ready }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&mockCalculator{name: "a"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(&mockCalculator{name: "a"}); err == nil {
		t.Error("Expected error for duplicate name")
	}
	if err := reg.Register(nil); err == nil {
		t.Error("Expected error for nil calculator")
	}
	if err := reg.Register(&mockCalculator{}); err == nil {
		t.Error("Expected error for empty name")
	}
}

func TestRegistry_GetListUnregister(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&mockCalculator{name: "zeta"})
	_ = reg.Register(&mockCalculator{name: "alpha"})

	names := reg.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Expected sorted names [alpha zeta], got %v", names)
	}

	if _, err := reg.Get("alpha"); err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if _, err := reg.Get("missing"); err == nil {
		t.Error("Expected error for missing calculator")
	}

	if err := reg.Unregister("alpha"); err != nil {
		t.Errorf("Unregister failed: %v", err)
	}
	if err := reg.Unregister("alpha"); err == nil {
		t.Error("Expected error unregistering twice")
	}
}

func TestRegistry_UpdateAllAndValues(t *testing.T) {
	reg := NewRegistry()
	a := &mockCalculator{name: "a"}
	_ = reg.Register(a)

	if len(reg.Values()) != 0 {
		t.Error("Expected no values before any update")
	}

	if err := reg.UpdateAll(&models.PricePoint{Price: 42}); err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}
	values := reg.Values()
	if values["a"] != 42 {
		t.Errorf("Expected value 42, got %v", values["a"])
	}

	reg.ResetAll()
	if a.IsReady() || a.updates != 0 {
		t.Error("Expected calculator reset")
	}
}

func TestRegistry_UpdateAllError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	_ = reg.Register(&mockCalculator{name: "bad", updateErr: boom})

	err := reg.UpdateAll(&models.PricePoint{Price: 1})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped calculator error, got %v", err)
	}
}
