package engine

import (
	"sync"
	"testing"

	. "github.com/kestrelchess/kestrel/pkg/common"
)

func TestTransTableRoundTrip(t *testing.T) {
	var tt = newTransTable(1)
	var tests = []struct {
		key        uint64
		depth      int
		score      int
		staticEval int
		bound      int
		move       PackedMove
	}{
		{0x123456789abcdef0, 12, 250, 100, boundExact, PackedMove(0x1234)},
		{0xfedcba9876543210, -3, -29900, -500, boundLower, PackedMove(0x0abc)},
		{0x1111111111111111, 0, 0, 1, boundUpper, PackedMoveEmpty},
		{0x2222222222222222, 100, valueMate - 5, 15000, boundExact, PackedMove(1)},
	}
	for _, test := range tests {
		tt.Update(test.key, test.depth, test.score, test.staticEval, test.bound, test.move)
	}
	for _, test := range tests {
		var depth, score, staticEval, bound, move, found = tt.Read(test.key)
		if !found {
			t.Fatalf("key %x not found", test.key)
		}
		if depth != test.depth || score != test.score ||
			staticEval != test.staticEval || bound != test.bound || move != test.move {
			t.Errorf("key %x: got (%v %v %v %v %v)", test.key, depth, score, staticEval, bound, move)
		}
	}
	if _, _, _, _, _, found := tt.Read(0x3333333333333333); found {
		t.Error("read of unknown key succeeded")
	}
}

func TestTransTableDeeperEntryWins(t *testing.T) {
	var tt = newTransTable(1)
	var key = uint64(0xdeadbeefcafebabe)
	tt.Update(key, 10, 50, 10, boundExact, PackedMove(7))
	// a shallower non-exact result of the same search must not clobber it
	tt.Update(key, 2, 500, 10, boundLower, PackedMove(9))
	var depth, score, _, bound, _, found = tt.Read(key)
	if !found || depth != 10 || score != 50 || bound != boundExact {
		t.Errorf("exact entry was regressed: depth %v score %v bound %v", depth, score, bound)
	}
	// an exact result replaces regardless of depth
	tt.Update(key, 2, 500, 10, boundExact, PackedMove(9))
	depth, score, _, _, _, found = tt.Read(key)
	if !found || depth != 2 || score != 500 {
		t.Errorf("exact shallow entry was not stored: depth %v score %v", depth, score)
	}
}

func TestTransTableKeepsMoveOnEmptyWrite(t *testing.T) {
	var tt = newTransTable(1)
	var key = uint64(0x0102030405060708)
	tt.Update(key, 5, 10, 0, boundExact, PackedMove(42))
	tt.Update(key, 7, 20, 0, boundExact, PackedMoveEmpty)
	var _, _, _, _, move, found = tt.Read(key)
	if !found || move != PackedMove(42) {
		t.Errorf("best move was dropped: %v", move)
	}
}

// Lockless safety: concurrent racy writes may evict entries, but a
// successful probe must never return another position's payload.
func TestTransTableLocklessSafety(t *testing.T) {
	var tt = newTransTable(1)

	var keys = make([]uint64, 4096)
	for i := range keys {
		// distinct low 32 bits so payload checks are unambiguous
		keys[i] = (uint64(i+1)*0x9e3779b97f4a7c15)<<32 | uint64(i)
	}
	var payload = func(key uint64) int {
		return int(int16(key>>48)) % 8000
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for round := 0; round < 20; round++ {
				for i := range keys {
					var key = keys[(i+seed*997)%len(keys)]
					tt.Update(key, 5, payload(key), 0, boundExact, PackedMove(uint16(key)))
					var _, score, _, _, move, found = tt.Read(key)
					if found && (score != payload(key) || move != PackedMove(uint16(key))) {
						t.Errorf("probe of %x returned foreign payload %v %v", key, score, move)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestTransTableGenerationAging(t *testing.T) {
	var tt = newTransTable(1)
	tt.Update(1, 5, 10, 0, boundExact, PackedMoveEmpty)
	if tt.HashFull() == 0 {
		t.Skip("key 1 not in sampled clusters")
	}
	tt.IncGeneration()
	var before = tt.HashFull()
	if before != 0 {
		t.Errorf("hashfull should not count previous generation, got %v", before)
	}
}
