package common

import "strings"

// Move carries enough context to apply it without consulting the board:
// from, to, moving piece, captured piece and promotion piece.
type Move int32

const MoveEmpty = Move(0)

func makeMove(from, to, movingPiece, capturedPiece int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^ (capturedPiece << 15))
}

func makePawnMove(from, to, capturedPiece, promotion int) Move {
	return Move(from ^ (to << 6) ^ (Pawn << 12) ^ (capturedPiece << 15) ^ (promotion << 18))
}

func (m Move) From() int {
	return int(m & 63)
}

func (m Move) To() int {
	return int((m >> 6) & 63)
}

func (m Move) MovingPiece() int {
	return int((m >> 12) & 7)
}

func (m Move) CapturedPiece() int {
	return int((m >> 15) & 7)
}

func (m Move) Promotion() int {
	return int((m >> 18) & 7)
}

func (m Move) IsQuiet() bool {
	return m.CapturedPiece() == Empty && m.Promotion() == Empty
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var sPromotion = ""
	if m.Promotion() != Empty {
		sPromotion = string("nbrq"[m.Promotion()-Knight])
	}
	return SquareName(m.From()) + SquareName(m.To()) + sPromotion
}

// PackedMove is the 16-bit move representation stored in the
// transposition table: from | to<<6 | promotion<<12. It loses the
// moving/captured piece context, so it is only meaningful relative to a
// concrete position and must be validated before use.
type PackedMove uint16

const PackedMoveEmpty = PackedMove(0)

func (m Move) Packed() PackedMove {
	if m == MoveEmpty {
		return PackedMoveEmpty
	}
	return PackedMove(m.From() | m.To()<<6 | m.Promotion()<<12)
}

func (pm PackedMove) From() int {
	return int(pm & 63)
}

func (pm PackedMove) To() int {
	return int((pm >> 6) & 63)
}

func (pm PackedMove) Promotion() int {
	return int((pm >> 12) & 7)
}

func (pm PackedMove) String() string {
	if pm == PackedMoveEmpty {
		return "0000"
	}
	var sPromotion = ""
	if pm.Promotion() != Empty {
		sPromotion = string("nbrq"[pm.Promotion()-Knight])
	}
	return SquareName(pm.From()) + SquareName(pm.To()) + sPromotion
}

// MoveFromPacked materializes a packed move against this position. A
// packed move taken from another position (hash collision, stale table
// entry) unpacks to MoveEmpty instead of a corrupt move.
func (p *Position) MoveFromPacked(pm PackedMove) Move {
	if pm == PackedMoveEmpty {
		return MoveEmpty
	}
	var from = pm.From()
	var to = pm.To()
	var movingPiece = p.WhatPiece(from)
	if movingPiece == Empty {
		return MoveEmpty
	}
	var capturedPiece = p.WhatPiece(to)
	if capturedPiece == King {
		return MoveEmpty
	}
	if movingPiece == Pawn && to == p.EpSquare && File(from) != File(to) {
		capturedPiece = Pawn
	}
	var m = Move(from ^ (to << 6) ^ (movingPiece << 12) ^
		(capturedPiece << 15) ^ (pm.Promotion() << 18))
	if !p.IsPseudoLegal(m) {
		return MoveEmpty
	}
	return m
}

func (p *Position) MakeMoveLAN(lan string) (Position, bool) {
	var buffer [MaxMoves]OrderedMove
	var ml = p.GenerateMoves(buffer[:])
	for i := range ml {
		var mv = ml[i].Move
		if strings.EqualFold(mv.String(), lan) {
			var newPosition = Position{}
			if p.MakeMove(mv, &newPosition) {
				return newPosition, true
			}
			return Position{}, false
		}
	}
	return Position{}, false
}
