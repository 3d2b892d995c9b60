package ledger

import "sync"

// Pools for the per-invoice tax grouping maps built on every amount query.

var groupMapPool = sync.Pool{
	New: func() any {
		return make(map[groupKey]*taxGroup, 4) // most invoices use one or two rates
	},
}

func getGroupMap() map[groupKey]*taxGroup {
	return groupMapPool.Get().(map[groupKey]*taxGroup)
}

func putGroupMap(m map[groupKey]*taxGroup) {
	for k := range m {
		delete(m, k)
	}
	groupMapPool.Put(m)
}
