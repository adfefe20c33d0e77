package projection

import (
	"sort"
	"sync"

	"gocg-permutas/internal/model"
)

// Filter narrows a SwapProjection listing. Zero values match everything.
type Filter struct {
	Arquivada *bool
	Status    string
	// RG keeps only permutas where RG is one of the two sides.
	RG string
}

func (f Filter) match(p *model.Permuta) bool {
	if f.Arquivada != nil && p.Arquivada != *f.Arquivada {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.RG != "" && p.SideOf(f.RG) == model.SideNone {
		return false
	}
	return true
}

// SwapProjection holds the resolved permutas ordered by duty date, then ID.
type SwapProjection struct {
	mu    sync.RWMutex
	items []model.Permuta
	byID  map[string]int
}

// NewSwapProjection returns an empty projection.
func NewSwapProjection() *SwapProjection {
	return &SwapProjection{byID: make(map[string]int)}
}

// Replace installs a freshly resolved list.
func (s *SwapProjection) Replace(resolved []model.Permuta) {
	items := make([]model.Permuta, len(resolved))
	copy(items, resolved)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Data.Equal(items[j].Data) {
			return items[i].Data.Before(items[j].Data)
		}
		return items[i].PermutaID < items[j].PermutaID
	})

	byID := make(map[string]int, len(items))
	for i := range items {
		byID[items[i].PermutaID] = i
	}

	s.mu.Lock()
	s.items = items
	s.byID = byID
	s.mu.Unlock()
}

// List returns the permutas matching f.
func (s *SwapProjection) List(f Filter) []model.Permuta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Permuta, 0, len(s.items))
	for i := range s.items {
		if f.match(&s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	return out
}

// Get looks up a permuta by ID.
func (s *SwapProjection) Get(id string) (model.Permuta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Permuta{}, false
	}
	return s.items[i], true
}

// Select returns the permutas named by ids, in projection order and without
// duplicates. IDs not in the projection are ignored.
func (s *SwapProjection) Select(ids []string) []model.Permuta {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Permuta, 0, len(want))
	for i := range s.items {
		if _, ok := want[s.items[i].PermutaID]; ok {
			out = append(out, s.items[i])
		}
	}
	return out
}

// Len is the number of resolved permutas.
func (s *SwapProjection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
