package uci

import (
	"strings"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/pkg/common"
)

func TestParseLimits(t *testing.T) {
	var limits = parseLimits(strings.Fields(
		"wtime 60000 btime 55000 winc 1000 binc 900 movestogo 20 depth 15"))
	if limits.WhiteTime != 60000 || limits.BlackTime != 55000 ||
		limits.WhiteIncrement != 1000 || limits.BlackIncrement != 900 ||
		limits.MovesToGo != 20 || limits.Depth != 15 {
		t.Errorf("parsed %+v", limits)
	}

	limits = parseLimits(strings.Fields("infinite"))
	if !limits.Infinite {
		t.Error("infinite not parsed")
	}

	limits = parseLimits(strings.Fields("movetime 3000 searchmoves e2e4 g1f3 e7e8q"))
	if limits.MoveTime != 3000 {
		t.Errorf("movetime %v", limits.MoveTime)
	}
	if len(limits.SearchMoves) != 3 || limits.SearchMoves[2] != "e7e8q" {
		t.Errorf("searchmoves %v", limits.SearchMoves)
	}

	limits = parseLimits(strings.Fields("ponder wtime 1000 btime 1000"))
	if !limits.Ponder {
		t.Error("ponder not parsed")
	}
}

func TestSearchInfoToUci(t *testing.T) {
	var p, err = common.NewPositionFromFEN(common.InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	var moves []common.Move
	for _, m := range p.GenerateLegalMoves() {
		if m.String() == "e2e4" {
			moves = append(moves, m)
		}
	}
	var line = searchInfoToUci(common.SearchInfo{
		Depth:    12,
		SelDepth: 20,
		Index:    1,
		Score:    common.UciScore{Centipawns: 35},
		Nodes:    1000000,
		Time:     2 * time.Second,
		HashFull: 123,
		MainLine: moves,
	})
	var want = "info depth 12 seldepth 20 multipv 1 time 2000 score cp 35 nodes 1000000 nps 499750 hashfull 123 pv e2e4"
	if line != want {
		t.Errorf("got  %v\nwant %v", line, want)
	}

	line = searchInfoToUci(common.SearchInfo{
		Depth: 5,
		Score: common.UciScore{Mate: -3},
	})
	if !strings.Contains(line, "score mate -3") {
		t.Errorf("mate score not formatted: %v", line)
	}
}

func TestPositionCommand(t *testing.T) {
	var protocol = New("test", "tester", "0", nil, nil)
	if err := protocol.positionCommand(strings.Fields(
		"startpos moves e2e4 c7c5 g1f3")); err != nil {
		t.Fatal(err)
	}
	if len(protocol.positions) != 4 {
		t.Errorf("got %v positions", len(protocol.positions))
	}
	var last = protocol.positions[len(protocol.positions)-1]
	if last.WhiteMove {
		t.Error("black to move after three plies")
	}

	if err := protocol.positionCommand(strings.Fields(
		"fen 8/8/4k3/8/8/4K3/8/8 w - - 0 1")); err != nil {
		t.Fatal(err)
	}
	if err := protocol.positionCommand(strings.Fields(
		"startpos moves e2e5")); err == nil {
		t.Error("illegal move accepted")
	}
}
