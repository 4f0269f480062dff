package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// MemoryDecisionLog keeps decisions in process. It is lost on restart.
type MemoryDecisionLog struct {
	mu        sync.RWMutex
	decisions map[string]*models.LoggedDecision
	// order holds IDs in recording order; the front is evicted first
	order []string
	// max bounds the log. 0 means unbounded.
	max int
}

// DecisionLogCapacity sizes a bounded log so that every decision logged by
// a poller of perPage coins survives past horizon. It doubles the steady
// state to leave room for manual refreshes.
func DecisionLogCapacity(perPage int, pollInterval, horizon time.Duration) int {
	if perPage < 1 || pollInterval <= 0 || horizon <= 0 {
		return 0
	}
	polls := int(horizon/pollInterval) + 1
	if horizon%pollInterval != 0 {
		polls++
	}
	return 2 * perPage * polls
}

// NewMemoryDecisionLog creates an in-memory decision log holding at most max
// entries, evicting the earliest recorded first
func NewMemoryDecisionLog(max int) *MemoryDecisionLog {
	return &MemoryDecisionLog{
		decisions: make(map[string]*models.LoggedDecision),
		max:       max,
	}
}

// Record stores a copy of the decision
func (l *MemoryDecisionLog) Record(ctx context.Context, decision *models.LoggedDecision) error {
	if decision == nil {
		return fmt.Errorf("decision cannot be nil")
	}
	if err := decision.Validate(); err != nil {
		return fmt.Errorf("invalid decision: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.decisions[decision.ID]; exists {
		return nil
	}
	d := *decision
	l.decisions[d.ID] = &d
	l.order = append(l.order, d.ID)

	for l.max > 0 && len(l.decisions) > l.max {
		delete(l.decisions, l.order[0])
		l.order[0] = ""
		l.order = l.order[1:]
	}
	return nil
}

// List returns copies of matching decisions, newest first
func (l *MemoryDecisionLog) List(ctx context.Context, filter DecisionFilter) ([]*models.LoggedDecision, error) {
	l.mu.RLock()
	var result []*models.LoggedDecision
	for _, d := range l.decisions {
		if filter.CoinID != "" && d.CoinID != filter.CoinID {
			continue
		}
		if !filter.CreatedBefore.IsZero() && !d.CreatedAt.Before(filter.CreatedBefore) {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !d.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		c := *d
		result = append(result, &c)
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	// Apply limit and offset
	start := filter.Offset
	if start > len(result) {
		start = len(result)
	}
	result = result[start:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count returns the number of recorded decisions
func (l *MemoryDecisionLog) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.decisions), nil
}

func (l *MemoryDecisionLog) Close() error {
	return nil
}
