package engine

import (
	. "github.com/kestrelchess/kestrel/pkg/common"
)

const historyMax = 16384

const pieceSquareSize = 7 * 64

// pieceSquareHistory is indexed [color][prevPiece*64+prevTo][piece*64+to].
type pieceSquareHistory [2][pieceSquareSize][pieceSquareSize]int16

// moveOrderer holds every move-ordering table. One instance is shared
// by all search workers without locks: counters tolerate lost updates
// and killer slots are last-writer-wins.
type moveOrderer struct {
	quietHistory        [2][64][64]int16
	captureHistory      [2][King + 1][King + 1][64]int16
	continuationHistory pieceSquareHistory
	counterMoveHistory  pieceSquareHistory
	counterMove         [2][pieceSquareSize]PackedMove
	killers             [stackSize][2]Move
}

const (
	promotionValue      = 8_000_000
	winningCaptureValue = 2_000_000
	goodCaptureValue    = 1_000_000
	losingCaptureValue  = -1_000_000
	recaptureBonus      = 100_000
)

var pawnPushBonus = [8]int{0, 0, 0, 0, 500, 2000, 8000, 0}

func colorIndex(side bool) int {
	if side {
		return 0
	}
	return 1
}

func pieceSquareIndex(move Move) int {
	return move.MovingPiece()*64 + move.To()
}

func newMoveOrderer() *moveOrderer {
	return &moveOrderer{}
}

func (o *moveOrderer) Clear() {
	*o = moveOrderer{}
}

// NewSearch halves the quiet history so stale preferences decay between
// searches, and forgets killer moves.
func (o *moveOrderer) NewSearch() {
	for c := range o.quietHistory {
		for from := range o.quietHistory[c] {
			for to := range o.quietHistory[c][from] {
				o.quietHistory[c][from][to] /= 2
			}
		}
	}
	for i := range o.killers {
		o.killers[i][0] = MoveEmpty
		o.killers[i][1] = MoveEmpty
	}
}

func (o *moveOrderer) GetKillers(height int) (Move, Move) {
	return o.killers[height][0], o.killers[height][1]
}

func (o *moveOrderer) UpdateKillers(height int, move Move) {
	if o.killers[height][0] != move {
		o.killers[height][1] = o.killers[height][0]
		o.killers[height][0] = move
	}
}

func (o *moveOrderer) ClearKillers(height int) {
	o.killers[height][0] = MoveEmpty
	o.killers[height][1] = MoveEmpty
}

func (o *moveOrderer) GetCounterMove(p *Position) Move {
	var prev = p.LastMove
	if prev == MoveEmpty {
		return MoveEmpty
	}
	var pm = o.counterMove[colorIndex(p.WhiteMove)][pieceSquareIndex(prev)]
	return p.MoveFromPacked(pm)
}

func (o *moveOrderer) UpdateCounterMove(p *Position, move Move) {
	var prev = p.LastMove
	if prev == MoveEmpty {
		return
	}
	o.counterMove[colorIndex(p.WhiteMove)][pieceSquareIndex(prev)] = move.Packed()
}

// historyContext snapshots the continuation-history rows relevant to
// one node: conts[i] addresses the move made i plies above, -1 when the
// chain is broken by a null move or the root.
type historyContext struct {
	orderer *moveOrderer
	color   int
	conts   [6]int32
}

func (t *thread) getHistoryContext(height int) historyContext {
	var hc = historyContext{
		orderer: t.engine.orderer,
		color:   colorIndex(t.stack[height].position.WhiteMove),
	}
	for i := range hc.conts {
		hc.conts[i] = -1
	}
	for i := 0; i < 6; i++ {
		var h = height - i
		if h < 0 {
			break
		}
		var prev = t.stack[h].position.LastMove
		if prev == MoveEmpty {
			break
		}
		hc.conts[i] = int32(pieceSquareIndex(prev))
	}
	return hc
}

func (hc *historyContext) contTable(i int) *pieceSquareHistory {
	if i%2 == 0 {
		return &hc.orderer.counterMoveHistory
	}
	return &hc.orderer.continuationHistory
}

func (hc *historyContext) ReadTotal(m Move) int {
	var o = hc.orderer
	var score = int(o.quietHistory[hc.color][m.From()][m.To()])
	var psq = pieceSquareIndex(m)
	for _, i := range [...]int{0, 1, 3, 5} {
		if hc.conts[i] >= 0 {
			score += int(hc.contTable(i)[hc.color][hc.conts[i]][psq])
		}
	}
	return score
}

// updateHistoryCounter applies the gravity formula
// h <- h + delta - h*|delta|/16384 (rounded) and clamps the result to
// [-historyMax, historyMax].
func updateHistoryCounter(v *int16, delta int) {
	var abs = delta
	if abs < 0 {
		abs = -abs
	}
	var newValue = int(*v) + delta - (int(*v)*abs+8192)/16384
	*v = int16(clampInt(newValue, -historyMax, historyMax))
}

func quietHistoryBonus(depth int) int {
	return Min(128*(depth-1)+depth*depth, 2000)
}

func captureHistoryBonus(depth int) int {
	if depth < 0 {
		depth = 0
	}
	return Min(16+32*depth+depth*depth, 2000)
}

// UpdateQuiets rewards the quiet move that caused a beta cutoff and
// punishes the quiets tried before it, in every history dimension.
func (hc *historyContext) UpdateQuiets(quietsSearched []Move, bestMove Move, depth int) {
	if len(quietsSearched) <= 1 && depth < 2 {
		return
	}
	var o = hc.orderer
	var bonus = quietHistoryBonus(depth)
	for _, m := range quietsSearched {
		var delta = -bonus
		if m == bestMove {
			delta = bonus
		}
		updateHistoryCounter(&o.quietHistory[hc.color][m.From()][m.To()], delta)
		var psq = pieceSquareIndex(m)
		for _, i := range [...]int{0, 1, 3, 5} {
			if hc.conts[i] >= 0 {
				updateHistoryCounter(&hc.contTable(i)[hc.color][hc.conts[i]][psq], delta)
			}
		}
		if m == bestMove {
			break
		}
	}
}

func (hc *historyContext) UpdateCaptures(capturesSearched []Move, bestMove Move, depth int) {
	if len(capturesSearched) <= 1 {
		return
	}
	var o = hc.orderer
	var bonus = captureHistoryBonus(depth)
	for _, m := range capturesSearched {
		var delta = -bonus
		if m == bestMove {
			delta = bonus
		}
		var captured = m.CapturedPiece()
		if captured == Empty {
			continue
		}
		updateHistoryCounter(&o.captureHistory[hc.color][m.MovingPiece()][captured][m.To()], delta)
		if m == bestMove {
			break
		}
	}
}

func (o *moveOrderer) captureScore(hc *historyContext, p *Position, m Move) int {
	var score int
	var attacker = m.MovingPiece()
	var captured = m.CapturedPiece()

	if captured != Empty {
		if attacker < captured {
			score = winningCaptureValue
		} else if attacker == captured {
			score = goodCaptureValue
		} else if seeGEZero(p, m) {
			score = goodCaptureValue
		} else {
			score = losingCaptureValue
		}

		// most valuable victim first
		score += 6 * captured * 512
		score += (int(o.captureHistory[hc.color][attacker][captured][m.To()]) + historyMax) / 128

		if p.LastMove != MoveEmpty && m.To() == p.LastMove.To() {
			score += recaptureBonus
		}
	}

	if m.Promotion() == Queen {
		score += promotionValue
	}
	return score
}

// threatInfo caches the enemy attack maps consulted by quiet scoring.
type threatInfo struct {
	attackedByPawns  uint64
	attackedByMinors uint64
	attackedByRooks  uint64
}

func computeThreats(p *Position) threatInfo {
	var ti threatInfo
	var own = p.PiecesByColor(p.WhiteMove)
	var opp = p.PiecesByColor(!p.WhiteMove)
	var occ = p.AllPieces()

	if p.WhiteMove {
		ti.attackedByPawns = AllBlackPawnAttacks(p.Pawns & opp)
	} else {
		ti.attackedByPawns = AllWhitePawnAttacks(p.Pawns & opp)
	}

	if ((p.Rooks | p.Queens) & own) != 0 {
		ti.attackedByMinors = ti.attackedByPawns
		for bb := p.Knights & opp; bb != 0; bb &= bb - 1 {
			ti.attackedByMinors |= KnightAttacks[FirstOne(bb)]
		}
		for bb := p.Bishops & opp; bb != 0; bb &= bb - 1 {
			ti.attackedByMinors |= BishopAttacks(FirstOne(bb), occ)
		}
	}

	if (p.Queens & own) != 0 {
		ti.attackedByRooks = ti.attackedByMinors
		for bb := p.Rooks & opp; bb != 0; bb &= bb - 1 {
			ti.attackedByRooks |= RookAttacks(FirstOne(bb), occ)
		}
	}

	return ti
}

func (hc *historyContext) quietScore(p *Position, ti *threatInfo, m Move) int {
	var score = hc.ReadTotal(m)
	var side = p.WhiteMove
	var own = p.PiecesByColor(side)
	var opp = p.PiecesByColor(!side)
	var fromBB = SquareMask[m.From()]
	var toBB = SquareMask[m.To()]

	switch m.MovingPiece() {
	case Pawn:
		score += pawnPushBonus[RelativeRank(m.To(), side)]
		if (PawnAttacks(m.To(), !side) & p.Pawns & own) != 0 {
			var pawnAttacks = PawnAttacks(m.To(), side)
			if (pawnAttacks & p.Kings & opp) != 0 {
				score += 10000
			} else if (pawnAttacks & p.Pawns & opp) != 0 {
				score += 1000
			} else if (pawnAttacks & p.Queens & opp) != 0 {
				score += 8000
			} else if (pawnAttacks & p.Rooks & opp) != 0 {
				score += 6000
			} else if (pawnAttacks & (p.Bishops | p.Knights) & opp) != 0 {
				score += 4000
			}
		}
	case Knight, Bishop:
		if (ti.attackedByPawns & fromBB) != 0 {
			score += 4000
		}
		if (ti.attackedByPawns & toBB) != 0 {
			score -= 4000
		}
	case Rook:
		if (ti.attackedByMinors & fromBB) != 0 {
			score += 8000
		}
		if (ti.attackedByMinors & toBB) != 0 {
			score -= 8000
		}
	case Queen:
		if (ti.attackedByRooks & fromBB) != 0 {
			score += 12000
		}
		if (ti.attackedByRooks & toBB) != 0 {
			score -= 12000
		}
	case King:
		var ownRights = WhiteKingSide | WhiteQueenSide
		if !side {
			ownRights = BlackKingSide | BlackQueenSide
		}
		if (p.CastleRights & ownRights) != 0 {
			score -= 6000
		}
	}

	return score
}
