// Package cmap provides a sharded concurrent map.
//
// Keys are spread across a power-of-two number of shards, each guarded by
// its own RWMutex, so the hot path never takes a map-wide lock:
//
//	m := cmap.New[string, *entry]()
//	e, _ := m.GetOrCompute("ip:10.0.0.1", newEntry)
//	removed := m.RemoveIf(func(_ string, e *entry) bool { return e.expired(now) })
//
// Whole-map operations (Count, RemoveIf) visit shards one at a
// time and therefore never observe a single consistent snapshot.
package cmap
