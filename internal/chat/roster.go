package chat

import "sort"

// Roster is the ordered contact list, most recent activity first.
type Roster []Contact

// Apply returns the roster with contactID's summary replaced and that
// contact moved to the front; the relative order of everything else is
// unchanged. Unknown contacts are a no-op (the roster may simply not be
// loaded yet). A summary strictly older than the contact's current one
// is rejected, so replaying or reordering push events can never roll a
// contact back; equal timestamps win, which keeps Apply idempotent.
//
// Apply never mutates its input.
func Apply(r Roster, contactID uint, s Summary) Roster {
	idx := -1
	for i := range r {
		if r[i].ID == contactID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r
	}

	cur := r[idx].Summary
	if !cur.Timestamp.IsZero() && s.Timestamp.Before(cur.Timestamp) {
		return r
	}

	out := make(Roster, 0, len(r))
	updated := r[idx]
	updated.Summary = s
	out = append(out, updated)
	out = append(out, r[:idx]...)
	out = append(out, r[idx+1:]...)
	return out
}

// SortByActivity orders a freshly fetched roster: latest activity first,
// contacts with no activity last, tie-broken by id for determinism.
func SortByActivity(r Roster) {
	sort.SliceStable(r, func(i, j int) bool {
		ti, tj := r[i].Summary.Timestamp, r[j].Summary.Timestamp
		if ti.IsZero() != tj.IsZero() {
			return !ti.IsZero()
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return r[i].ID < r[j].ID
	})
}
