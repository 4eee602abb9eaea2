package engine

import (
	. "github.com/kestrelchess/kestrel/pkg/common"
)

// Upcoming-repetition detection after Marcel van Kervinck's cuckoo
// scheme: a hash table keyed by the zobrist signature of every
// reversible single-piece move answers "is this hash delta a move"
// in two probes.
// http://www.open-chess.org/viewtopic.php?f=5&t=2300

const cuckooTableSize = 8192

var (
	cuckooKeys       [cuckooTableSize]uint64
	cuckooMoves      [cuckooTableSize]PackedMove
	cuckooEntryCount int
)

func cuckooIndex1(key uint64) int {
	return int(key & (cuckooTableSize - 1))
}

func cuckooIndex2(key uint64) int {
	return int((key >> 16) & (cuckooTableSize - 1))
}

func emptyBoardAttacks(piece, sq int) uint64 {
	switch piece {
	case Knight:
		return KnightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, 0)
	case Rook:
		return RookAttacks(sq, 0)
	case Queen:
		return QueenAttacks(sq, 0)
	case King:
		return KingAttacks[sq]
	}
	return 0
}

func init() {
	// pawn moves are irreversible and stay out of the table
	for _, side := range [...]bool{true, false} {
		for piece := Knight; piece <= King; piece++ {
			for squareA := 0; squareA < 64; squareA++ {
				for squareB := squareA + 1; squareB < 64; squareB++ {
					if (emptyBoardAttacks(piece, squareA) & SquareMask[squareB]) == 0 {
						continue
					}
					var move = PackedMove(squareA | squareB<<6)
					var key = PieceSquareKey(piece, side, squareA) ^
						PieceSquareKey(piece, side, squareB) ^
						SideKey()
					var index = cuckooIndex1(key)
					for {
						cuckooKeys[index], key = key, cuckooKeys[index]
						cuckooMoves[index], move = move, cuckooMoves[index]
						if move == PackedMoveEmpty {
							break
						}
						if index == cuckooIndex1(key) {
							index = cuckooIndex2(key)
						} else {
							index = cuckooIndex1(key)
						}
					}
					cuckooEntryCount++
				}
			}
		}
	}
}

// isRepeat walks the search stack for a position key seen before, then
// falls back to the played-game repetition map. Irreversible moves
// terminate the walk.
func (t *thread) isRepeat(height int) bool {
	var p = &t.stack[height].position

	if p.Rule50 == 0 || p.LastMove == MoveEmpty {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var temp = &t.stack[i].position
		if temp.Key == p.Key {
			return true
		}
		if temp.Rule50 == 0 || temp.LastMove == MoveEmpty {
			if i > 0 {
				// an irreversible or null move inside the tree also
				// cuts off the played game
				return false
			}
			break
		}
	}

	return t.engine.historyKeys[p.Key] >= 2
}

// canReachGameCycle reports whether the side to move has a reversible
// move that repeats an ancestor of this node. The search treats such
// nodes as at least a draw when alpha is below the draw score.
func (t *thread) canReachGameCycle(height int) bool {
	var p = &t.stack[height].position
	if p.Rule50 < 3 || p.LastMove == MoveEmpty {
		return false
	}

	var maxBack = Min(p.Rule50, height)
	for i := height; i > height-maxBack; i-- {
		if t.stack[i].position.LastMove == MoveEmpty {
			maxBack = height - i
			break
		}
	}

	var occupied = p.AllPieces()
	var own = p.PiecesByColor(p.WhiteMove)

	for d := 3; d <= maxBack; d += 2 {
		var moveKey = p.Key ^ t.stack[height-d].position.Key

		var index = -1
		if cuckooKeys[cuckooIndex1(moveKey)] == moveKey {
			index = cuckooIndex1(moveKey)
		} else if cuckooKeys[cuckooIndex2(moveKey)] == moveKey {
			index = cuckooIndex2(moveKey)
		}
		if index < 0 {
			continue
		}

		var move = cuckooMoves[index]
		var from = move.From()
		var to = move.To()
		if (Between(from, to) & occupied) != 0 {
			continue
		}
		if (own & (SquareMask[from] | SquareMask[to])) != 0 {
			return true
		}
	}

	return false
}
