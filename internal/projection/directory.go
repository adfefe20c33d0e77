// Package projection keeps the in-memory read models served by the API:
// the personnel Directory and the resolved SwapProjection. Both are rebuilt
// wholesale from the store whenever the change feed reports a write.
package projection

import (
	"sort"
	"strings"
	"sync"

	"gocg-permutas/internal/model"
)

// Directory is the RG → Militar lookup table.
type Directory struct {
	mu   sync.RWMutex
	byRG map[string]model.Militar
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{byRG: make(map[string]model.Militar)}
}

// Replace swaps the whole content for list.
func (d *Directory) Replace(list []model.Militar) {
	next := make(map[string]model.Militar, len(list))
	for _, m := range list {
		next[m.RG] = m
	}

	d.mu.Lock()
	d.byRG = next
	d.mu.Unlock()
}

// Get looks up a militar by RG.
func (d *Directory) Get(rg string) (model.Militar, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byRG[rg]
	return m, ok
}

// List returns every militar ordered by name, then RG.
func (d *Directory) List() []model.Militar {
	d.mu.RLock()
	out := make([]model.Militar, 0, len(d.byRG))
	for _, m := range d.byRG {
		out = append(out, m)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Nome), strings.ToLower(out[j].Nome)
		if a != b {
			return a < b
		}
		return out[i].RG < out[j].RG
	})
	return out
}

// Len is the number of known militares.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byRG)
}
