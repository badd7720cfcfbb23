package board

import "github.com/existflow/ironboard/internal/model"

// Snapshot maps each status key to its ordered items
type Snapshot map[model.Status][]model.Item

// NewSnapshot returns a snapshot with an empty lane per status
func NewSnapshot() Snapshot {
	s := make(Snapshot, len(model.Statuses))
	for _, st := range model.Statuses {
		s[st] = []model.Item{}
	}
	return s
}

// Group buckets items by status in the order given. Items with an
// unknown status are left out.
func Group(items []model.Item) Snapshot {
	s := NewSnapshot()
	for _, it := range items {
		if !it.Status.Valid() {
			continue
		}
		s[it.Status] = append(s[it.Status], it.Clone())
	}
	return s
}

// Clone deep-copies the snapshot
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for st, items := range s {
		out[st] = cloneItems(items)
	}
	return out
}

// find locates an item, returning its lane and index
func (s Snapshot) find(id int64) (model.Status, int, model.Item, bool) {
	for _, st := range model.Statuses {
		for i, it := range s[st] {
			if it.ID == id {
				return st, i, it, true
			}
		}
	}
	return "", -1, model.Item{}, false
}

// remove returns a copy of the lane without index i
func remove(items []model.Item, i int) []model.Item {
	out := make([]model.Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// insert returns a copy of the lane with it placed at index i
func insert(items []model.Item, i int, it model.Item) []model.Item {
	if i < 0 || i > len(items) {
		i = len(items)
	}
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, it)
	return append(out, items[i:]...)
}

// moved returns a copy of s with the item taken out of its lane and put
// at the head of to, its status and column updated
func (s Snapshot) moved(id int64, to model.Status, columnID int64) Snapshot {
	out := s.Clone()
	from, i, it, ok := out.find(id)
	if !ok {
		return out
	}
	out[from] = remove(out[from], i)
	it.Status = to
	it.ColumnID = columnID
	out[to] = insert(out[to], 0, it)
	return out
}

// restored returns a copy of s where item id is put back where it was in
// prev. Other lanes are untouched.
func (s Snapshot) restored(prev Snapshot, id int64) Snapshot {
	out := s.Clone()
	if lane, i, _, ok := out.find(id); ok {
		out[lane] = remove(out[lane], i)
	}
	lane, i, it, ok := prev.find(id)
	if !ok {
		return out
	}
	out[lane] = insert(out[lane], i, it.Clone())
	return out
}
