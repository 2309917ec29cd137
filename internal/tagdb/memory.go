package tagdb

import (
	"sort"

	"cpt-go/internal/cpt"
)

// MemoryIndex is an in-memory cpt.TagIndex for tests and the "memory" index
// type. Contents are lost on Close.
type MemoryIndex struct {
	records map[string]cpt.TagRecord
}

// NewMemoryIndex creates an empty in-memory tag index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]cpt.TagRecord)}
}

func (m *MemoryIndex) Set(rec cpt.TagRecord) error {
	m.records[rec.Tag] = rec
	return nil
}

func (m *MemoryIndex) Resolve(tag string) (cpt.TagRecord, error) {
	rec, ok := m.records[tag]
	if !ok {
		return cpt.TagRecord{}, &cpt.TagNotFoundError{Tag: tag}
	}
	return rec, nil
}

func (m *MemoryIndex) ForDirectory(directory string) ([]cpt.TagRecord, error) {
	var recs []cpt.TagRecord
	for _, rec := range m.records {
		if rec.Directory == directory {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (m *MemoryIndex) Close() error {
	return nil
}

// Compile-time check that MemoryIndex implements cpt.TagIndex.
var _ cpt.TagIndex = (*MemoryIndex)(nil)
