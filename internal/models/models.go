package models

import (
	"slices"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page is an offset/limit window over an ordered result.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []uuid.UUID, id uuid.UUID) bool {
	return slices.Contains(ids, id)
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// AddID appends id unless it is already present.
func AddID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if ContainsID(ids, id) {
		return ids
	}
	return append(slices.Clone(ids), id)
}

// Chunk splits ids into consecutive batches of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
