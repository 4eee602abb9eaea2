package common

import (
	"testing"
)

var testFENs = []string{
	InitialPositionFen,
	// Kiwipete
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	// Duplain
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	// underpromotion
	"8/p1P5/P7/3p4/5p1p/3p1P1P/K2p2pp/3R2nk w - - 0 1",
	// en passant
	"8/7p/p5pb/4k3/P1pPn3/8/P5PP/1rB2RK1 b - d3 0 28",
	"rnb1kbnr/pp1ppppp/8/1q6/2PpP3/5N2/PP3PPP/RNBQ1K1R b kq c3 0 6",
	// castling both sides
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"r3kb2/ppp2pp1/6n1/7Q/8/2P1BN1b/1q2PPB1/3R1K1R b q - 0 1",
	// tactical middlegames
	"1r2k2r/p5bp/4p1p1/q2pB1N1/6P1/6QP/1P6/2KR3R b k - 0 1",
	"6k1/Qp1r1pp1/p1rP3p/P3q3/2Bnb1P1/1P3PNP/4p1K1/R1R5 b - - 0 1",
	"2r3k1/5p1n/6p1/pp3n2/2BPp2P/4P2P/q1rN1PQb/R1BKR3 b - - 0 1",
	// endgames
	"8/K5p1/1P1k1p1p/5P1P/2R3P1/8/8/8 b - - 0 78",
	"8/8/8/1p2q3/1P2rkp1/2P5/5K1Q/8 b - - 6 4",
}

func TestPackedMoveRoundTrip(t *testing.T) {
	for _, fen := range testFENs {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		for _, move := range p.GenerateLegalMoves() {
			var unpacked = p.MoveFromPacked(move.Packed())
			if unpacked != move {
				t.Errorf("%v: %v round-tripped to %v", fen, move, unpacked)
			}
		}
	}
}

func TestMoveFromPackedForeign(t *testing.T) {
	// moves packed in one position must not unpack to garbage in another
	for _, srcFen := range testFENs {
		var src, err = NewPositionFromFEN(srcFen)
		if err != nil {
			t.Fatal(err)
		}
		for _, dstFen := range testFENs {
			var dst, err = NewPositionFromFEN(dstFen)
			if err != nil {
				t.Fatal(err)
			}
			for _, move := range src.GenerateLegalMoves() {
				var unpacked = dst.MoveFromPacked(move.Packed())
				if unpacked == MoveEmpty {
					continue
				}
				if !dst.IsPseudoLegal(unpacked) {
					t.Errorf("unpacked %v is not pseudo-legal in %v", unpacked, dstFen)
				}
			}
		}
	}
}

func TestZobristIncrementalUpdate(t *testing.T) {
	var buffer [MaxMoves]OrderedMove
	for _, fen := range testFENs {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		if p.Key != p.ComputeKey() {
			t.Fatalf("%v: initial key mismatch", fen)
		}
		var child Position
		for _, om := range p.GenerateMoves(buffer[:]) {
			if !p.MakeMove(om.Move, &child) {
				continue
			}
			if child.Key != child.ComputeKey() {
				t.Errorf("%v: move %v: incremental key %x, recomputed %x",
					fen, om.Move, child.Key, child.ComputeKey())
			}
		}
		var null Position
		p.MakeNullMove(&null)
		if null.Key != null.ComputeKey() {
			t.Errorf("%v: null move key mismatch", fen)
		}
	}
}

func TestIsPseudoLegal(t *testing.T) {
	// for a position not in check, the generator emits the exact
	// pseudo-legal move set; IsPseudoLegal must agree, including for
	// moves lifted from unrelated positions
	var buffer [MaxMoves]OrderedMove
	var allMoves = make(map[Move]bool)
	for _, fen := range testFENs {
		var p, _ = NewPositionFromFEN(fen)
		for _, om := range p.GenerateMoves(buffer[:]) {
			allMoves[om.Move] = true
		}
	}

	for _, fen := range testFENs {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		if p.IsCheck() {
			continue
		}
		var generated = make(map[Move]bool)
		for _, om := range p.GenerateMoves(buffer[:]) {
			generated[om.Move] = true
		}
		for move := range allMoves {
			if p.IsPseudoLegal(move) != generated[move] {
				t.Errorf("%v: IsPseudoLegal(%v)=%v, generated=%v",
					fen, move, p.IsPseudoLegal(move), generated[move])
			}
		}
	}
}

func TestMirrorPosition(t *testing.T) {
	for _, fen := range testFENs {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var m = MirrorPosition(&p)
		var back = MirrorPosition(&m)
		if !p.Equals(&back) {
			t.Errorf("%v: double mirror changed position to %v", fen, back.String())
		}
		if len(p.GenerateLegalMoves()) != len(m.GenerateLegalMoves()) {
			t.Errorf("%v: mirrored position has different mobility", fen)
		}
	}
}
