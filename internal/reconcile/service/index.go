package service

import (
	"sort"

	"pricebook-recon/internal/reconcile/model"
)

// entry is a working-set element: the record plus its precomputed keys.
type entry struct {
	pos      int // position in the source snapshot
	rec      model.Record
	matchKey string
	blockKey string
	model    string // normalized model
	search   string
}

func newEntry(pos int, r model.Record) entry {
	return entry{
		pos:      pos,
		rec:      r,
		matchKey: BuildMatchKey(r),
		blockKey: BuildBlockKey(r),
		model:    stripModelWhitespace(r.Model()),
		search:   BuildSearchText(r),
	}
}

// BlockIndex groups values by block key. Order inside a block follows input order.
type BlockIndex[T any] map[string][]T

// BuildBlockIndex groups records by manufacturer+family.
func BuildBlockIndex(records []model.Record) BlockIndex[model.Record] {
	return groupByBlock(records, BuildBlockKey)
}

func indexEntries(es []entry) BlockIndex[entry] {
	return groupByBlock(es, func(e entry) string { return e.blockKey })
}

func groupByBlock[T any](items []T, key func(T) string) BlockIndex[T] {
	idx := make(BlockIndex[T])
	for _, it := range items {
		k := key(it)
		idx[k] = append(idx[k], it)
	}
	return idx
}

// Keys returns the block keys sorted (для детерминированного порядка).
func (idx BlockIndex[T]) Keys() []string {
	out := make([]string, 0, len(idx))
	for k := range idx {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
