package model

import (
	"errors"
	"testing"

	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

func TestDifficultyContextEviction(t *testing.T) {
	window := NewDifficultyContext(3)
	if _, ok := window.TipHeight(); ok {
		t.Fatalf("TestDifficultyContextEviction: an empty window has no tip")
	}

	for height := uint32(10); height < 15; height++ {
		err := window.Push(height, 1000+height, 0x1d00ffff)
		if err != nil {
			t.Fatalf("TestDifficultyContextEviction: Push(%d): %+v", height, err)
		}
	}

	if window.Len() != 3 || window.Capacity() != 3 {
		t.Fatalf("TestDifficultyContextEviction: expected 3 of 3 entries, got %d of %d", window.Len(), window.Capacity())
	}
	tip, ok := window.TipHeight()
	if !ok || tip != 14 {
		t.Fatalf("TestDifficultyContextEviction: expected tip 14, got %d", tip)
	}
	for i, entry := range window.Entries() {
		expectedHeight := uint32(12 + i)
		if entry.Height != expectedHeight || entry.Time != 1000+expectedHeight {
			t.Fatalf("TestDifficultyContextEviction: entry %d is %+v, expected height %d", i, entry, expectedHeight)
		}
	}
}

func TestDifficultyContextPushGap(t *testing.T) {
	window := NewDifficultyContext(5)
	if err := window.Push(7, 0, 0); err != nil {
		t.Fatalf("TestDifficultyContextPushGap: the first push may start anywhere: %+v", err)
	}
	err := window.Push(9, 0, 0)
	if !errors.Is(err, ruleerrors.ErrHeightMismatch) {
		t.Fatalf("TestDifficultyContextPushGap: expected ErrHeightMismatch, got %+v", err)
	}
	if window.Len() != 1 {
		t.Fatalf("TestDifficultyContextPushGap: a rejected push changed the window")
	}
}

func TestDifficultyContextClone(t *testing.T) {
	window := NewDifficultyContext(2)
	_ = window.Push(1, 1, 1)
	clone := window.Clone()
	_ = clone.Push(2, 2, 2)
	_ = clone.Push(3, 3, 3)

	if window.Len() != 1 {
		t.Fatalf("TestDifficultyContextClone: pushing to the clone changed the original")
	}
	if tip, _ := clone.TipHeight(); tip != 3 {
		t.Fatalf("TestDifficultyContextClone: expected clone tip 3, got %d", tip)
	}
}
