package engine

import (
	. "github.com/kestrelchess/kestrel/pkg/common"
)

const (
	stageTTMove = iota
	stageGenCaptures
	stageGoodCaptures
	stageKiller1
	stageKiller2
	stageCounterMove
	stageGenQuiets
	stageQuiets
	stageBadCaptures
	stageEnd
)

// movePicker feeds moves to the search one at a time, cheapest stages
// first, so a beta cutoff on the TT move never pays for quiet move
// generation. Hint moves (TT, killers, counter) double as the seen-set:
// later stages skip them.
type movePicker struct {
	t        *thread
	height   int
	position *Position
	hc       historyContext

	ttMove      Move
	killer1     Move
	killer2     Move
	counterMove Move

	stage    int
	index    int
	captures []OrderedMove
	bad      []OrderedMove
	quiets   []OrderedMove
}

func (t *thread) initMovePicker(mp *movePicker, height int, ttMove Move) {
	mp.t = t
	mp.height = height
	mp.position = &t.stack[height].position
	mp.hc = t.getHistoryContext(height)
	mp.ttMove = ttMove
	mp.killer1 = MoveEmpty
	mp.killer2 = MoveEmpty
	mp.counterMove = MoveEmpty
	mp.stage = stageTTMove
	mp.index = 0
}

func (mp *movePicker) Next() Move {
	var t = mp.t
	var p = mp.position
	var o = t.engine.orderer

	for {
		switch mp.stage {
		case stageTTMove:
			mp.stage = stageGenCaptures
			if mp.ttMove != MoveEmpty {
				return mp.ttMove
			}

		case stageGenCaptures:
			var frame = &t.stack[mp.height]
			var ml = p.GenerateCaptures(frame.captureList[:])
			for i := range ml {
				ml[i].Key = int32(o.captureScore(&mp.hc, p, ml[i].Move))
			}
			// SEE partition: losing captures are deferred past quiets
			var goodCount = 0
			for i := range ml {
				if ml[i].Key >= goodCaptureValue {
					ml[goodCount], ml[i] = ml[i], ml[goodCount]
					goodCount++
				}
			}
			mp.captures = ml[:goodCount]
			mp.bad = ml[goodCount:]
			sortMoves(mp.captures)
			sortMoves(mp.bad)
			mp.index = 0
			mp.stage = stageGoodCaptures

		case stageGoodCaptures:
			for mp.index < len(mp.captures) {
				var m = mp.captures[mp.index].Move
				mp.index++
				if m == mp.ttMove {
					continue
				}
				return m
			}
			mp.stage = stageKiller1

		case stageKiller1:
			mp.stage = stageKiller2
			var k1, _ = o.GetKillers(mp.height)
			if k1 != MoveEmpty && k1.IsQuiet() && k1 != mp.ttMove &&
				p.IsPseudoLegal(k1) {
				mp.killer1 = k1
				return k1
			}

		case stageKiller2:
			mp.stage = stageCounterMove
			var _, k2 = o.GetKillers(mp.height)
			if k2 != MoveEmpty && k2.IsQuiet() && k2 != mp.ttMove &&
				k2 != mp.killer1 && p.IsPseudoLegal(k2) {
				mp.killer2 = k2
				return k2
			}

		case stageCounterMove:
			mp.stage = stageGenQuiets
			var cm = o.GetCounterMove(p)
			if cm != MoveEmpty && cm.IsQuiet() && cm != mp.ttMove &&
				cm != mp.killer1 && cm != mp.killer2 {
				mp.counterMove = cm
				return cm
			}

		case stageGenQuiets:
			var frame = &t.stack[mp.height]
			var ml = p.GenerateMoves(frame.moveList[:])
			var ti = computeThreats(p)
			var count = 0
			for i := range ml {
				var m = ml[i].Move
				// captures and queen promotions came from the capture
				// stages; underpromotions are picked up here
				if (m.Promotion() == Empty && m.CapturedPiece() != Empty) ||
					m.Promotion() == Queen {
					continue
				}
				if m == mp.ttMove || m == mp.killer1 || m == mp.killer2 ||
					m == mp.counterMove {
					continue
				}
				ml[count] = OrderedMove{Move: m, Key: int32(mp.hc.quietScore(p, &ti, m))}
				count++
			}
			mp.quiets = ml[:count]
			sortMoves(mp.quiets)
			mp.index = 0
			mp.stage = stageQuiets

		case stageQuiets:
			if mp.index < len(mp.quiets) {
				var m = mp.quiets[mp.index].Move
				mp.index++
				return m
			}
			mp.index = 0
			mp.stage = stageBadCaptures

		case stageBadCaptures:
			for mp.index < len(mp.bad) {
				var m = mp.bad[mp.index].Move
				mp.index++
				if m == mp.ttMove {
					continue
				}
				return m
			}
			mp.stage = stageEnd

		default:
			return MoveEmpty
		}
	}
}

// qsMovePicker is the tactical-only picker of the quiescence search:
// evasions when in check, captures and queen promotions otherwise.
type qsMovePicker struct {
	buffer []OrderedMove
	count  int
	index  int
}

func (mi *qsMovePicker) Init(p *Position) {
	if p.IsCheck() {
		mi.count = len(p.GenerateMoves(mi.buffer))
	} else {
		mi.count = len(p.GenerateCaptures(mi.buffer))
	}

	for i := 0; i < mi.count; i++ {
		var m = mi.buffer[i].Move
		var score int
		if isCaptureOrPromotion(m) {
			score = 29000 + mvvlva(m)
		}
		mi.buffer[i].Key = int32(score)
	}

	sortMoves(mi.buffer[:mi.count])
	mi.index = 0
}

func (mi *qsMovePicker) Next() Move {
	if mi.index >= mi.count {
		return MoveEmpty
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

var sortPieceValues = [...]int{Empty: 0, Pawn: 1, Knight: 2, Bishop: 3, Rook: 4, Queen: 5, King: 6}

func mvvlva(move Move) int {
	return 8*(sortPieceValues[move.CapturedPiece()]+
		sortPieceValues[move.Promotion()]) -
		sortPieceValues[move.MovingPiece()]
}

func sortMoves(moves []OrderedMove) {
	for i := 1; i < len(moves); i++ {
		j, t := i, moves[i]
		for ; j > 0 && moves[j-1].Key < t.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}
