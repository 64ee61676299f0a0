package suggestions

import (
	"encoding/json"
	"sort"
)

// DismissedSet is the set of suggestion ids the user dismissed.
// It serializes as an ordered JSON list and decodes back into a set.
type DismissedSet map[string]struct{}

// NewDismissedSet returns an empty set.
func NewDismissedSet() DismissedSet {
	return DismissedSet{}
}

// FromList builds a set from a stored list, dropping duplicates and blanks.
func FromList(ids []string) DismissedSet {
	s := make(DismissedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Add inserts id and reports whether it was new. Blank ids are never stored,
// matching FromList.
func (s DismissedSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports membership.
func (s DismissedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s DismissedSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s DismissedSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s DismissedSet) Clone() DismissedSet {
	out := make(DismissedSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s DismissedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list (or null) into the set.
func (s *DismissedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = FromList(ids)
	return nil
}
