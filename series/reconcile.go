package series

type State string

const (
	StateAdd    State = "ADD"
	StateRemove State = "REMOVE"
)

// Change is one series membership change caused by a content mutation.
// SkipNotify only suppresses the notification, the membership change and the
// search index refresh always happen.
type Change struct {
	SeriesID         string
	State            State
	OwnerID          string
	SkipNotify       bool
	ContentIsDeleted bool
}

// Input of Reconcile. Owners maps series id to the series owner's actor id,
// series missing from the map have no known owner and are never paired.
type Input struct {
	OldSeriesIds    []string
	NewSeriesIds    []string
	Owners          map[string]string
	ActorID         string
	ContentIsHidden bool
}

type Result struct {
	Added   []Change
	Removed []Change
}

func (r Result) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0
}

// Diff treats both slices as ordered sets and returns the ids only in newIds
// (added) and the ids only in oldIds (removed), in their original order.
// Duplicate ids are collapsed to their first occurrence.
func Diff(oldIds []string, newIds []string) (added []string, removed []string) {
	oldSet := toSet(oldIds)
	newSet := toSet(newIds)

	added = []string{}
	for _, id := range dedupe(newIds) {
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	removed = []string{}
	for _, id := range dedupe(oldIds) {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// Reconcile computes which series gained or lost the content item and which
// of those changes must stay silent.
//
// When one owner both gains and loses the item in the same mutation, the item
// merely moved between that owner's series: every change of that owner is
// silent. Hidden content never notifies about additions.
func Reconcile(in Input) Result {
	added, removed := Diff(in.OldSeriesIds, in.NewSeriesIds)

	type ownerGroup struct {
		hasAdd    bool
		hasRemove bool
	}
	groups := map[string]*ownerGroup{}
	group := func(owner string) *ownerGroup {
		if _, ok := groups[owner]; !ok {
			groups[owner] = &ownerGroup{}
		}
		return groups[owner]
	}
	for _, id := range added {
		if owner := in.Owners[id]; owner != "" {
			group(owner).hasAdd = true
		}
	}
	for _, id := range removed {
		if owner := in.Owners[id]; owner != "" {
			group(owner).hasRemove = true
		}
	}
	moved := func(owner string) bool {
		g, ok := groups[owner]
		return owner != "" && ok && g.hasAdd && g.hasRemove
	}

	res := Result{Added: []Change{}, Removed: []Change{}}
	for _, id := range added {
		owner := in.Owners[id]
		res.Added = append(res.Added, Change{
			SeriesID:   id,
			State:      StateAdd,
			OwnerID:    owner,
			SkipNotify: moved(owner) || in.ContentIsHidden,
		})
	}
	for _, id := range removed {
		owner := in.Owners[id]
		res.Removed = append(res.Removed, Change{
			SeriesID:   id,
			State:      StateRemove,
			OwnerID:    owner,
			SkipNotify: moved(owner),
		})
	}
	return res
}

// ReconcileDeletion builds the removals caused by deleting the content item
// itself. They are never paired with additions; the series owner is notified
// unless they are the deleting actor or the creator of the content.
func ReconcileDeletion(seriesIds []string, owners map[string]string, actorID string, creatorID string) []Change {
	res := []Change{}
	for _, id := range dedupe(seriesIds) {
		owner := owners[id]
		res = append(res, Change{
			SeriesID:         id,
			State:            StateRemove,
			OwnerID:          owner,
			SkipNotify:       owner == actorID || owner == creatorID,
			ContentIsDeleted: true,
		})
	}
	return res
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
