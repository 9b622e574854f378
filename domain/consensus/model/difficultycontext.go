package model

import (
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

// DifficultyContextEntry is what the difficulty adjustment needs to know
// about a previous block
type DifficultyContextEntry struct {
	Height uint32
	Time   uint32
	Bits   uint32
}

// DifficultyContext is a bounded window of the most recent blocks, with
// consecutive heights. Pushing into a full window evicts the oldest entry.
// A DifficultyContext is not safe for concurrent mutation.
type DifficultyContext struct {
	entries []DifficultyContextEntry
	start   int
	size    int
}

// NewDifficultyContext returns an empty window holding at most capacity entries
func NewDifficultyContext(capacity int) *DifficultyContext {
	if capacity < 1 {
		capacity = 1
	}
	return &DifficultyContext{entries: make([]DifficultyContextEntry, capacity)}
}

// Push appends the block at height to the window. Once the window is not
// empty, height must directly follow the tip.
func (dc *DifficultyContext) Push(height uint32, time uint32, bits uint32) error {
	if tipHeight, ok := dc.TipHeight(); ok && height != tipHeight+1 {
		return ruleerrors.NewErrHeightMismatch(tipHeight+1, height)
	}

	entry := DifficultyContextEntry{Height: height, Time: time, Bits: bits}
	if dc.size < len(dc.entries) {
		dc.entries[(dc.start+dc.size)%len(dc.entries)] = entry
		dc.size++
		return nil
	}
	dc.entries[dc.start] = entry
	dc.start = (dc.start + 1) % len(dc.entries)
	return nil
}

// TipHeight returns the height of the newest entry, and false if the window
// is empty
func (dc *DifficultyContext) TipHeight() (uint32, bool) {
	if dc.size == 0 {
		return 0, false
	}
	return dc.at(dc.size - 1).Height, true
}

// Len returns the number of entries in the window
func (dc *DifficultyContext) Len() int {
	return dc.size
}

// Capacity returns the maximal number of entries in the window
func (dc *DifficultyContext) Capacity() int {
	return len(dc.entries)
}

// Entries returns a copy of the entries, oldest first
func (dc *DifficultyContext) Entries() []DifficultyContextEntry {
	entries := make([]DifficultyContextEntry, dc.size)
	for i := range entries {
		entries[i] = dc.at(i)
	}
	return entries
}

// Clone returns a deep copy of the window
func (dc *DifficultyContext) Clone() *DifficultyContext {
	entriesClone := make([]DifficultyContextEntry, len(dc.entries))
	copy(entriesClone, dc.entries)
	return &DifficultyContext{
		entries: entriesClone,
		start:   dc.start,
		size:    dc.size,
	}
}

func (dc *DifficultyContext) at(i int) DifficultyContextEntry {
	return dc.entries[(dc.start+i)%len(dc.entries)]
}
