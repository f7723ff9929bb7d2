package dqm

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Store holds Monitor Elements keyed by folder/name.
type Store struct {
	elements map[string]*MonitorElement
	current  string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{elements: make(map[string]*MonitorElement)}
}

// SetCurrentFolder sets the folder used by Book1D calls that pass "".
func (s *Store) SetCurrentFolder(folder string) {
	s.current = cleanFolder(folder)
}

// CurrentFolder returns the folder set by SetCurrentFolder.
func (s *Store) CurrentFolder() string { return s.current }

// Book1D books a fixed-width histogram. Booking an existing path returns the
// existing element unchanged when its binning matches.
func (s *Store) Book1D(folder, name, title string, nbins int, lo, hi float64) (*MonitorElement, error) {
	if folder == "" {
		folder = s.current
	}
	folder = cleanFolder(folder)
	key := path.Join(folder, name)

	if me, ok := s.elements[key]; ok {
		if me.nbins != nbins || me.lo != lo || me.hi != hi {
			return nil, fmt.Errorf("monitor element %q already booked with different binning", key)
		}
		return me, nil
	}

	me, err := newElement(folder, name, title, nbins, lo, hi)
	if err != nil {
		return nil, err
	}
	s.elements[key] = me
	return me, nil
}

// Get returns the element at folder/name.
func (s *Store) Get(p string) (*MonitorElement, bool) {
	me, ok := s.elements[path.Clean(p)]
	return me, ok
}

// Elements returns all elements sorted by path.
func (s *Store) Elements() []*MonitorElement {
	out := make([]*MonitorElement, 0, len(s.elements))
	for _, me := range s.elements {
		out = append(out, me)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// ElementsIn returns the elements under folder (recursively), sorted by path.
func (s *Store) ElementsIn(folder string) []*MonitorElement {
	folder = cleanFolder(folder)
	var out []*MonitorElement
	for _, me := range s.Elements() {
		if me.folder == folder || strings.HasPrefix(me.folder, folder+"/") {
			out = append(out, me)
		}
	}
	return out
}

// RemoveFolder drops every element under folder and returns how many were
// removed.
func (s *Store) RemoveFolder(folder string) int {
	removed := 0
	for _, me := range s.ElementsIn(folder) {
		delete(s.elements, me.Path())
		removed++
	}
	return removed
}

// Reset zeroes every element without unbooking it.
func (s *Store) Reset() {
	for _, me := range s.elements {
		me.Reset()
	}
}

// Snapshot returns a new store holding copies of every element. Later fills
// in s do not affect the snapshot.
func (s *Store) Snapshot() *Store {
	out := &Store{elements: make(map[string]*MonitorElement, len(s.elements)), current: s.current}
	for key, me := range s.elements {
		out.elements[key] = me.Clone()
	}
	return out
}

// Len returns the number of booked elements.
func (s *Store) Len() int { return len(s.elements) }

func cleanFolder(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return path.Clean(folder)
}
