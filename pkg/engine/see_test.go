package engine

import (
	"testing"

	. "github.com/kestrelchess/kestrel/pkg/common"
)

// classic SEE positions from the chessprogramming wiki swap algorithm
// page, values in abstract units (pawn=1, minor=4, rook=6, queen=12)
func TestSeeGE(t *testing.T) {
	var tests = []struct {
		fen  string
		move string
		see  int
	}{
		// Rxe5 wins an undefended pawn
		{"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1", "e1e5", 1},
		// Nxe5 wins a pawn but loses the knight to Ndxe5
		{"1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - - 0 1", "d3e5", -3},
		// queen steps next to the king onto a square only the king defends
		{"3k4/ppp2ppp/3p4/8/8/8/4Q3/4K3 w - - 0 1", "e2e7", -12},
		// equal rook trade
		{"4k3/4r3/8/8/8/8/4R3/4K3 w - - 0 1", "e2e7", 0},
	}

	for _, test := range tests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		var move = MoveEmpty
		for _, m := range p.GenerateLegalMoves() {
			if m.String() == test.move {
				move = m
			}
		}
		if move == MoveEmpty {
			t.Fatalf("%v: move %v not found", test.fen, test.move)
		}
		if !SeeGE(&p, move, test.see) {
			t.Errorf("%v %v: SEE should be >= %v", test.fen, test.move, test.see)
		}
		if SeeGE(&p, move, test.see+1) {
			t.Errorf("%v %v: SEE should be < %v", test.fen, test.move, test.see+1)
		}
	}
}

func TestSeeGEMonotone(t *testing.T) {
	var fens = []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"6k1/Qp1r1pp1/p1rP3p/P3q3/2Bnb1P1/1P3PNP/4p1K1/R1R5 b - - 0 1",
		"2r3k1/5p1n/6p1/pp3n2/2BPp2P/4P2P/q1rN1PQb/R1BKR3 b - - 0 1",
	}
	var buffer [MaxMoves]OrderedMove
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for _, om := range p.GenerateCaptures(buffer[:]) {
			var prev = true
			for threshold := -13; threshold <= 13; threshold++ {
				var cur = SeeGE(&p, om.Move, threshold)
				if cur && !prev {
					t.Errorf("%v %v: SeeGE not monotone at threshold %v",
						fen, om.Move, threshold)
				}
				prev = cur
			}
		}
	}
}
