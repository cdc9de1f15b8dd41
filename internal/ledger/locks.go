package ledger

import (
	"slices"
	"sync"
)

const lockStripes = 64

// accountLocks serializes mutations per account. Accounts hash onto a fixed
// set of stripes which are always taken in ascending order, so two transfers
// in opposite directions cannot deadlock.
type accountLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *accountLocks) lock(ids ...uint) (unlock func()) {
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		idx = append(idx, int(id%lockStripes))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.stripes[idx[j]].Unlock()
		}
	}
}

func (l *accountLocks) lockAll() (unlock func()) {
	for i := range l.stripes {
		l.stripes[i].Lock()
	}
	return func() {
		for i := len(l.stripes) - 1; i >= 0; i-- {
			l.stripes[i].Unlock()
		}
	}
}
