package sim

import (
	"errors"
	"sort"
	"sync"
)

// ErrTableSealed is returned by Append once a table has been sealed.
var ErrTableSealed = errors.New("result table is sealed")

// ResultTable collects Imbalance Summary Records across a whole grid.
// It is append-only and safe for concurrent use. Collectors fill it and then
// Seal it; tables returned by the grid strategies and the results loaders are
// already sealed and read-only.
type ResultTable struct {
	mu     sync.RWMutex
	rows   []ImbalanceSummary
	sealed bool
}

// NewResultTable creates an empty table.
func NewResultTable() *ResultTable {
	return &ResultTable{}
}

// Append adds rows to the table. It is meant for the collector that builds
// the table and fails with ErrTableSealed after Seal.
func (t *ResultTable) Append(rows ...ImbalanceSummary) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return ErrTableSealed
	}
	t.rows = append(t.rows, rows...)
	return nil
}

// Seal makes the table read-only and returns it. Sealing twice is a no-op.
func (t *ResultTable) Seal() *ResultTable {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
	return t
}

// Sealed reports whether the table is read-only.
func (t *ResultTable) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Rows returns a copy of the rows in insertion order.
func (t *ResultTable) Rows() []ImbalanceSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]ImbalanceSummary, len(t.rows))
	copy(result, t.rows)
	return result
}

// Keys returns the multiset of row keys as key -> occurrence count.
func (t *ResultTable) Keys() map[Key]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make(map[Key]int, len(t.rows))
	for _, r := range t.rows {
		keys[r.Key()]++
	}
	return keys
}

// Methods returns the sorted distinct method names.
func (t *ResultTable) Methods() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]bool)
	for _, r := range t.rows {
		seen[r.Method] = true
	}
	return validNamesList(seen)
}

// FactorCounts returns the sorted distinct factor counts present for method.
func (t *ResultTable) FactorCounts(method string) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[int]bool)
	for _, r := range t.rows {
		if r.Method == method {
			seen[r.Factors] = true
		}
	}
	counts := make([]int, 0, len(seen))
	for n := range seen {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}
