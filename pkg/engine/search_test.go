package engine

import (
	"context"
	"testing"

	. "github.com/kestrelchess/kestrel/pkg/common"
)

func searchFEN(t *testing.T, fen string, depth int, moves ...string) SearchInfo {
	t.Helper()
	var e = newTestEngine()
	return runSearch(t, e, fen, depth, moves...)
}

func runSearch(t *testing.T, e *Engine, fen string, depth int, moves ...string) SearchInfo {
	t.Helper()
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	var positions = []Position{p}
	for _, lan := range moves {
		var next, ok = positions[len(positions)-1].MakeMoveLAN(lan)
		if !ok {
			t.Fatalf("illegal move %v", lan)
		}
		positions = append(positions, next)
	}
	return e.Search(context.Background(), SearchParams{
		Positions: positions,
		Limits:    LimitsType{Depth: depth},
	})
}

func TestSearchMateInOne(t *testing.T) {
	var si = searchFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 10)
	if si.Score.Mate != 1 {
		t.Errorf("score %+v, want mate 1", si.Score)
	}
	if len(si.MainLine) == 0 || si.MainLine[0].String() != "a1a8" {
		t.Errorf("best move %v, want a1a8", si.MainLine)
	}
}

func TestSearchAvoidsStalemate(t *testing.T) {
	// black has no moves: most queen retreats stalemate immediately
	var fen = "7k/5Q2/6K1/8/8/8/8/8 w - - 0 1"
	var si = searchFEN(t, fen, 10)
	if si.Score.Mate < 1 {
		t.Fatalf("score %+v, want a mate score", si.Score)
	}
	var p, _ = NewPositionFromFEN(fen)
	var child, ok = p.MakeMoveLAN(si.MainLine[0].String())
	if !ok {
		t.Fatalf("best move %v is illegal", si.MainLine[0])
	}
	if !child.IsCheck() && len(child.GenerateLegalMoves()) == 0 {
		t.Errorf("best move %v stalemates", si.MainLine[0])
	}
}

func TestSearchInsufficientMaterial(t *testing.T) {
	for _, depth := range []int{1, 4, 8} {
		var si = searchFEN(t, "8/8/4k3/8/8/4K3/8/8 w - - 0 1", depth)
		if si.Score.Mate != 0 || si.Score.Centipawns != 0 {
			t.Errorf("depth %v: score %+v, want 0", depth, si.Score)
		}
	}
}

func TestSearchThreefoldRepetition(t *testing.T) {
	var si = searchFEN(t, InitialPositionFen, 8,
		"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8")
	if si.Score.Mate != 0 || si.Score.Centipawns != 0 {
		t.Errorf("score %+v, want 0 in a drawn position", si.Score)
	}
}

func TestSearchTacticalPositionSane(t *testing.T) {
	var fen = "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1"
	var si = searchFEN(t, fen, 12)
	if si.Score.Mate != 0 {
		t.Fatalf("score %+v, mate out of nowhere", si.Score)
	}
	if si.Score.Centipawns < -50 || si.Score.Centipawns > 60 {
		t.Errorf("score %v cp out of [-50, 60]", si.Score.Centipawns)
	}
	// every PV move must be legal in sequence
	var p, _ = NewPositionFromFEN(fen)
	for _, m := range si.MainLine {
		var next, ok = p.MakeMoveLAN(m.String())
		if !ok {
			t.Fatalf("PV contains illegal move %v", m)
		}
		p = next
	}
}

func TestSearchZugzwangNullMoveSafe(t *testing.T) {
	var si = searchFEN(t, "8/8/p7/P7/k7/8/8/K7 w - - 0 1", 20)
	if si.Score.Mate != 0 {
		t.Fatalf("score %+v, want no mate claim", si.Score)
	}
	if si.Score.Centipawns < -200 || si.Score.Centipawns > 200 {
		t.Errorf("score %v cp out of [-200, 200]", si.Score.Centipawns)
	}
}

func TestSearchDeterministic(t *testing.T) {
	var fen = "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1"
	var si1 = searchFEN(t, fen, 8)
	var si2 = searchFEN(t, fen, 8)
	if si1.Score != si2.Score {
		t.Errorf("scores differ: %+v vs %+v", si1.Score, si2.Score)
	}
	if len(si1.MainLine) != len(si2.MainLine) {
		t.Fatalf("PV lengths differ: %v vs %v", si1.MainLine, si2.MainLine)
	}
	for i := range si1.MainLine {
		if si1.MainLine[i] != si2.MainLine[i] {
			t.Errorf("PV differs at %v: %v vs %v", i, si1.MainLine[i], si2.MainLine[i])
		}
	}
}

func TestSearchMirrorSymmetry(t *testing.T) {
	// forced outcomes must be identical from the mirrored side
	var fens = []string{
		"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
		"8/8/4k3/8/8/4K3/8/8 w - - 0 1",
		"7k/8/8/8/8/8/1R6/R6K w - - 0 1",
	}
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var mirror = MirrorPosition(&p)
		var si1 = searchFEN(t, fen, 8)
		var si2 = searchFEN(t, mirror.String(), 8)
		if si1.Score != si2.Score {
			t.Errorf("%v: score %+v, mirrored %+v", fen, si1.Score, si2.Score)
		}
	}
}

func TestSearchMateConsistency(t *testing.T) {
	// two-rook ladder mate in two
	var fen = "7k/8/8/8/8/8/1R6/R6K w - - 0 1"
	var si = searchFEN(t, fen, 8)
	if si.Score.Mate != 2 {
		t.Fatalf("score %+v, want mate 2", si.Score)
	}
	if len(si.MainLine) != 3 {
		t.Fatalf("PV %v, want full mating line of 3 plies", si.MainLine)
	}
	var p, _ = NewPositionFromFEN(fen)
	for _, m := range si.MainLine {
		var next, ok = p.MakeMoveLAN(m.String())
		if !ok {
			t.Fatalf("PV contains illegal move %v", m)
		}
		p = next
	}
	if !p.IsCheck() || len(p.GenerateLegalMoves()) != 0 {
		t.Errorf("PV does not end in checkmate: %v", p.String())
	}
}

func TestSearchHistoryBounds(t *testing.T) {
	var e = newTestEngine()
	runSearch(t, e, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1", 10)
	var o = e.orderer
	for c := range o.quietHistory {
		for from := range o.quietHistory[c] {
			for to := range o.quietHistory[c][from] {
				var v = int(o.quietHistory[c][from][to])
				if v < -historyMax || v > historyMax {
					t.Fatalf("quiet history out of bounds: %v", v)
				}
			}
		}
	}
	for c := range o.continuationHistory {
		for i := range o.continuationHistory[c] {
			for j := range o.continuationHistory[c][i] {
				var v = int(o.continuationHistory[c][i][j])
				if v < -historyMax || v > historyMax {
					t.Fatalf("continuation history out of bounds: %v", v)
				}
			}
		}
	}
}

func TestSearchMovesFilter(t *testing.T) {
	var e = newTestEngine()
	var p, _ = NewPositionFromFEN("r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1")
	var si = e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 6, SearchMoves: []string{"a2a3"}},
	})
	if len(si.MainLine) == 0 || si.MainLine[0].String() != "a2a3" {
		t.Errorf("best move %v, want the only searched move a2a3", si.MainLine)
	}
}

func TestSearchMultiPV(t *testing.T) {
	var e = newTestEngine()
	e.MultiPV = 3
	e.ProgressMinNodes = 0
	var p, _ = NewPositionFromFEN("r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1")
	var lines = make(map[int]string)
	e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 6},
		Progress: func(si SearchInfo) {
			if len(si.MainLine) != 0 {
				lines[si.Index] = si.MainLine[0].String()
			}
		},
	})
	if len(lines) != 3 {
		t.Fatalf("got %v PV lines, want 3: %v", len(lines), lines)
	}
	var seen = make(map[string]bool)
	for _, first := range lines {
		if seen[first] {
			t.Errorf("duplicate first move across PV lines: %v", lines)
		}
		seen[first] = true
	}
}

func TestSearchNodeLimit(t *testing.T) {
	var e = newTestEngine()
	var p, _ = NewPositionFromFEN("r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1")
	var si = e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Nodes: 10000},
	})
	if si.Nodes > 200000 {
		t.Errorf("searched %v nodes with a 10000 node limit", si.Nodes)
	}
	if len(si.MainLine) == 0 {
		t.Error("no best move under node limit")
	}
}
