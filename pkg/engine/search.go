package engine

import (
	. "github.com/kestrelchess/kestrel/pkg/common"
)

var pieceValuesCP = [King + 1]int{Pawn: 100, Knight: 400, Bishop: 400, Rook: 600, Queen: 1200}

func aspirationWindow(t *thread, depth, prevScore int) int {
	t.rootDepth = depth
	t.selDepth = 0
	t.evaluator.Init(&t.stack[0].position)

	if depth >= 4 && prevScore > valueLoss && prevScore < valueWin {
		// window narrows as the iteration gets deeper
		var window = Max(20, 200-(depth-4)*20)
		var alpha = Max(-valueInfinity, prevScore-window)
		var beta = Min(valueInfinity, prevScore+window)
		var failedLow, failedHigh = false, false
		for {
			var score = t.alphaBeta(alpha, beta, depth, 0, MoveEmpty)
			if score > alpha && score < beta {
				return score
			}
			if score <= alpha {
				failedLow = true
				alpha -= window
			}
			if score >= beta {
				failedHigh = true
				beta += window
			}
			window *= 2
			if (failedLow && failedHigh) || alpha < valueLoss {
				alpha = -valueInfinity
			}
			if (failedLow && failedHigh) || beta > valueWin {
				beta = valueInfinity
			}
			alpha = Max(alpha, -valueInfinity)
			beta = Min(beta, valueInfinity)
		}
	}

	return t.alphaBeta(-valueInfinity, valueInfinity, depth, 0, MoveEmpty)
}

// alphaBeta is a fail-soft principal variation search. The return value
// is the best score found and may land outside the [alpha, beta] window.
func (t *thread) alphaBeta(alpha, beta, depth, height int, skipMove Move) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, height)
	}
	t.clearPV(height)

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var position = &t.stack[height].position
	var isCheck = position.IsCheck()
	var orderer = t.engine.orderer
	var oldAlpha = alpha

	if !rootNode {
		if height >= maxHeight {
			return t.evaluator.EvaluateQuick(position)
		}
		if isDraw(position) {
			return valueDraw
		}
		if t.isRepeat(height) {
			return t.drawValue()
		}
		if alpha < valueDraw && t.canReachGameCycle(height) {
			alpha = Max(alpha, t.drawValue())
			if alpha >= beta {
				return alpha
			}
		}
		// mate distance pruning
		alpha = Max(alpha, lossIn(height))
		beta = Min(beta, winIn(height+1))
		if alpha >= beta {
			return alpha
		}
	}

	var (
		ttDepth, ttValue, ttEval, ttBound int
		ttMovePacked                      PackedMove
		ttHit                             bool
	)
	if skipMove == MoveEmpty {
		ttDepth, ttValue, ttEval, ttBound, ttMovePacked, ttHit = t.engine.transTable.Read(position.Key)
	}
	var ttMove = MoveEmpty
	if ttHit {
		ttMove = position.MoveFromPacked(ttMovePacked)
		ttValue = valueFromTT(ttValue, height, position.Rule50)
	}
	if rootNode && t.rootHint != MoveEmpty {
		ttMove = t.rootHint
	}
	if ttHit && !pvNode && ttDepth >= depth {
		if ttValue >= beta && (ttBound&boundLower) != 0 {
			if ttMove != MoveEmpty && ttMove.IsQuiet() {
				orderer.UpdateKillers(height, ttMove)
			}
			return ttValue
		}
		if ttValue <= alpha && (ttBound&boundUpper) != 0 {
			return ttValue
		}
	}

	var staticEval int
	if ttHit && ttEval != 0 {
		staticEval = ttEval
	} else {
		staticEval = t.evaluator.EvaluateQuick(position)
	}
	t.stack[height].staticEval = staticEval
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	if height+2 <= maxHeight {
		orderer.ClearKillers(height + 2)
	}
	var child = &t.stack[height+1].position

	if !rootNode && !pvNode && !isCheck && skipMove == MoveEmpty {

		// reverse futility / beta pruning
		if depth <= betaPruningDepth &&
			staticEval-(betaPruningBias+betaPruningMul*depth) >= beta &&
			beta > valueLoss && beta < valueWin {
			return staticEval
		}

		// razoring / alpha pruning
		if depth <= alphaPruningDepth &&
			staticEval+(alphaPruningBias+alphaPruningMul*depth) <= alpha &&
			alpha > valueLoss && alpha < valueWin {
			return staticEval
		}

		// null-move pruning
		if depth >= 3 && staticEval >= beta &&
			position.LastMove != MoveEmpty &&
			beta < valueWin &&
			!isLateEndgame(position, position.WhiteMove) &&
			hasNonPawnMaterial(position) {
			var reduction = 3 + depth/4
			t.makeMove(MoveEmpty, height)
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1, MoveEmpty)
			t.unmakeMove()
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}
	}

	// singular extension: verify the TT move is the only one holding
	// the node by excluding it from a reduced-depth search
	var ttMoveIsSingular, ttMoveIsDoubleSingular = false, false
	if !rootNode && skipMove == MoveEmpty && depth >= 6 &&
		ttHit && ttMove != MoveEmpty &&
		(ttBound&boundLower) != 0 && ttDepth >= depth-3 &&
		ttValue > valueLoss && ttValue < valueWin {
		var singularBeta = Max(-valueInfinity, ttValue-depth)
		var score = t.alphaBeta(singularBeta-1, singularBeta, (depth-1)/2, height, ttMove)
		ttMoveIsSingular = score < singularBeta
		ttMoveIsDoubleSingular = ttMoveIsSingular && !pvNode && score < singularBeta-50
		t.clearPV(height)
	}

	var mp = &t.pickers[height]
	t.initMovePicker(mp, height, ttMove)
	var killer1, killer2 = orderer.GetKillers(height)

	var frame = &t.stack[height]
	var quietsSearched = frame.quietsSearched[:0]
	var capturesSearched = frame.capturesSearched[:0]

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0
	var bestMove Move
	var best = -valueInfinity

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	for {
		var move = mp.Next()
		if move == MoveEmpty {
			break
		}
		if move == skipMove {
			continue
		}
		if rootNode && t.rootMoves != nil && findMoveIndex(t.rootMoves, move) < 0 {
			continue
		}
		var isNoisy = isCaptureOrPromotion(move)
		if !isNoisy {
			quietsSeen++
		}

		if depth <= 8 && best > valueLoss && hasLegalMove && !isCheck && !rootNode {
			if !isNoisy && move != killer1 && move != killer2 {
				// late-move pruning
				if quietsSeen > lmp {
					continue
				}
				// futility pruning
				if staticEval+100+pawnValue*depth <= alpha {
					continue
				}
			}
			// SEE pruning
			var seeMargin int
			if isNoisy {
				seeMargin = Max(depth, (staticEval+pawnValue-alpha)/pawnValue)
			} else {
				seeMargin = depth / 2
			}
			if !SeeGE(position, move, -seeMargin) {
				continue
			}
		}

		if !t.makeMove(move, height) {
			continue
		}
		hasLegalMove = true
		movesSearched++

		var extension = 0
		if child.IsCheck() && depth >= 3 {
			extension = 1
		}
		if move == ttMove && ttMoveIsSingular {
			extension = 1
			if ttMoveIsDoubleSingular {
				extension = 2
			}
		}

		var reduction = 0
		if depth >= 3 && movesSearched > 1 && !isNoisy {
			reduction = t.engine.lmr(depth, movesSearched)
			if move == killer1 || move == killer2 || move == mp.counterMove {
				reduction--
			}
			if !isCheck {
				var history = mp.hc.ReadTotal(move)
				reduction -= Max(-2, Min(2, history/5000))
				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || child.IsCheck() {
				reduction--
			}
			reduction = clampInt(reduction, 0, depth-2)
		}

		if !isNoisy {
			quietsSearched = append(quietsSearched, move)
		} else if move.CapturedPiece() != Empty && len(capturesSearched) < cap(capturesSearched) {
			capturesSearched = append(capturesSearched, move)
		}

		var newDepth = depth - 1 + extension

		var score = alpha + 1
		// LMR probe
		if reduction > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1, MoveEmpty)
		}
		// PVS probe
		if score > alpha && pvNode && movesSearched > 1 && newDepth > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1, MoveEmpty)
		}
		// full-window search
		if score > alpha {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1, MoveEmpty)
		}

		t.unmakeMove()

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if !hasLegalMove {
		if skipMove != MoveEmpty {
			return alpha
		}
		if isCheck {
			return lossIn(height)
		}
		return valueDraw
	}

	if bestMove != MoveEmpty && alpha > oldAlpha {
		if bestMove.IsQuiet() {
			mp.hc.UpdateQuiets(quietsSearched, bestMove, depth)
			orderer.UpdateKillers(height, bestMove)
			orderer.UpdateCounterMove(position, bestMove)
		} else if bestMove.CapturedPiece() != Empty {
			mp.hc.UpdateCaptures(capturesSearched, bestMove, depth)
		}
	}

	if skipMove == MoveEmpty {
		var bound = 0
		if best > oldAlpha {
			bound |= boundLower
		}
		if best < beta {
			bound |= boundUpper
		}
		if !(rootNode && bound == boundUpper) {
			t.engine.transTable.Update(position.Key, depth,
				valueToTT(best, height), staticEval, bound, bestMove.Packed())
		}
	}

	return best
}

func (t *thread) quiescence(alpha, beta, height int) int {
	t.clearPV(height)
	if height > t.selDepth {
		t.selDepth = height
	}
	var position = &t.stack[height].position
	if isDraw(position) {
		return valueDraw
	}
	if height >= maxHeight {
		return t.evaluator.EvaluateQuick(position)
	}
	if t.isRepeat(height) {
		return t.drawValue()
	}

	var _, ttValue, _, ttBound, _, ttHit = t.engine.transTable.Read(position.Key)
	if ttHit {
		ttValue = valueFromTT(ttValue, height, position.Rule50)
		if ttBound == boundExact ||
			ttBound == boundLower && ttValue >= beta ||
			ttBound == boundUpper && ttValue <= alpha {
			return ttValue
		}
	}

	var isCheck = position.IsCheck()
	var best = -valueInfinity
	var staticEval = 0
	if !isCheck {
		staticEval = t.evaluator.EvaluateQuick(position)
		best = Max(best, staticEval)
		if staticEval > alpha {
			alpha = staticEval
			if alpha >= beta {
				return alpha
			}
		}
	}

	var mi = &t.qsPickers[height]
	mi.buffer = t.stack[height].moveList[:]
	mi.Init(position)
	var hasLegalMove = false
	for {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if !isCheck {
			// futility: hopeless captures cannot lift alpha
			if move.CapturedPiece() != Empty && move.Promotion() == Empty &&
				staticEval+pieceValuesCP[move.CapturedPiece()]+200 <= alpha {
				continue
			}
			if !seeGEZero(position, move) {
				continue
			}
		}
		if !t.makeMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, height+1)
		t.unmakeMove()
		best = Max(best, score)
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}
	if isCheck && !hasLegalMove {
		return lossIn(height)
	}
	return best
}

const (
	betaPruningDepth  = 6
	betaPruningMul    = 80
	betaPruningBias   = 30
	alphaPruningDepth = 4
	alphaPruningMul   = 150
	alphaPruningBias  = 1000
)

func hasNonPawnMaterial(p *Position) bool {
	var own = p.PiecesByColor(p.WhiteMove)
	return ((p.Knights | p.Bishops | p.Rooks | p.Queens) & own) != 0
}

// drawValue jitters the draw score by one centipawn off the node
// counter, nudging the search to explore both sides of a dead-drawn
// line.
func (t *thread) drawValue() int {
	return valueDraw + int(t.nodes&2) - 1
}

func (t *thread) incNodes() {
	t.nodes++
	if t.nodes&2047 == 0 {
		// fixed-nodes search is only exact in single-threaded mode
		if t.engine.Threads == 1 {
			t.engine.timeManager.OnNodesChanged(int(t.engine.nodes + t.nodes))
		}
		if t.engine.timeManager.IsDone() {
			panic(errSearchTimeout)
		}
	}
}

func (t *thread) makeMove(move Move, height int) bool {
	var pos = &t.stack[height].position
	var child = &t.stack[height+1].position
	if move == MoveEmpty {
		pos.MakeNullMove(child)
	} else {
		if !pos.MakeMove(move, child) {
			return false
		}
	}
	t.evaluator.MakeMove(pos, move)
	t.engine.transTable.Prefetch(child.Key)
	t.incNodes()
	return true
}

func (t *thread) unmakeMove() {
	t.evaluator.UnmakeMove()
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move Move) {
	if height+1 <= maxHeight {
		t.stack[height].pv.assign(move, &t.stack[height+1].pv)
	} else {
		var empty pv
		t.stack[height].pv.assign(move, &empty)
	}
}
