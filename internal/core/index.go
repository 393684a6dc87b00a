package core

import (
	"sort"

	"assetdep/internal/types"
)

// ResolutionIndex holds pending references partitioned by
// (DependencyType, MatchMode, Polarity), keyed by normalized path.
//
// The index is not safe for concurrent use. The owning pipeline delivers
// build events serially; a parallel pipeline must put a mutex or a
// single-writer actor in front of it, because wildcard scans and inserts
// do not tolerate interleaving.
type ResolutionIndex struct {
	tables map[types.Partition]map[string][]*types.PendingReference
}

func NewResolutionIndex() *ResolutionIndex {
	return &ResolutionIndex{
		tables: map[types.Partition]map[string][]*types.PendingReference{},
	}
}

// Insert files ref under its partition and key. Insertion is idempotent
// per (partition, key, consumer, platform): reprocessing the same job must
// not track the same pending row twice. Returns false on a duplicate.
func (x *ResolutionIndex) Insert(ref *types.PendingReference) bool {
	partition := ref.Partition()
	table, ok := x.tables[partition]
	if !ok {
		table = map[string][]*types.PendingReference{}
		x.tables[partition] = table
	}
	for _, existing := range table[ref.Key] {
		if existing.ConsumerProductID == ref.ConsumerProductID && existing.Platform == ref.Platform {
			return false
		}
	}
	table[ref.Key] = append(table[ref.Key], ref)
	return true
}

// Remove drops a specific reference; the key entry is dropped when its
// list becomes empty.
func (x *ResolutionIndex) Remove(ref *types.PendingReference) bool {
	partition := ref.Partition()
	table, ok := x.tables[partition]
	if !ok {
		return false
	}
	refs := table[ref.Key]
	for i, existing := range refs {
		if existing.ConsumerProductID != ref.ConsumerProductID || existing.Platform != ref.Platform {
			continue
		}
		table[ref.Key] = append(refs[:i:i], refs[i+1:]...)
		if len(table[ref.Key]) == 0 {
			delete(table, ref.Key)
		}
		return true
	}
	return false
}

func (x *ResolutionIndex) Lookup(partition types.Partition, key string) []*types.PendingReference {
	return x.tables[partition][key]
}

// Find returns the reference for (partition, key, consumer, platform), or
// nil when none is tracked.
func (x *ResolutionIndex) Find(partition types.Partition, key string, consumerProductID int64, platform string) *types.PendingReference {
	for _, ref := range x.tables[partition][key] {
		if ref.ConsumerProductID == consumerProductID && ref.Platform == platform {
			return ref
		}
	}
	return nil
}

// EachWildcard visits every stored wildcard pattern of one class and
// polarity in sorted key order. Return false from fn to stop early.
func (x *ResolutionIndex) EachWildcard(depType types.DependencyType, polarity types.Polarity, fn func(pattern string, refs []*types.PendingReference) bool) {
	partition := types.Partition{Type: depType, Mode: types.MatchModeWildcard, Polarity: polarity}
	table := x.tables[partition]
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !fn(key, table[key]) {
			return
		}
	}
}

// RemoveRows drops every reference mirroring one of the given persisted
// rows, used when a job's unresolved dependencies are cleared before
// reprocessing.
func (x *ResolutionIndex) RemoveRows(rows []types.DependencyRow) int {
	byID := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		byID[row.RowID] = struct{}{}
	}
	removed := 0
	for partition, table := range x.tables {
		for key, refs := range table {
			kept := refs[:0]
			for _, ref := range refs {
				if _, ok := byID[ref.RowID]; ok {
					removed++
					continue
				}
				kept = append(kept, ref)
			}
			if len(kept) == 0 {
				delete(table, key)
			} else {
				table[key] = kept
			}
		}
		if len(table) == 0 {
			delete(x.tables, partition)
		}
	}
	return removed
}

// All returns a snapshot of every pending reference, for diagnostics.
func (x *ResolutionIndex) All() []*types.PendingReference {
	var out []*types.PendingReference
	for _, table := range x.tables {
		for _, refs := range table {
			out = append(out, refs...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		if out[i].ConsumerProductID != out[j].ConsumerProductID {
			return out[i].ConsumerProductID < out[j].ConsumerProductID
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

func (x *ResolutionIndex) Len() int {
	total := 0
	for _, table := range x.tables {
		for _, refs := range table {
			total += len(refs)
		}
	}
	return total
}
