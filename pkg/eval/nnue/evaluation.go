package eval

import (
	. "github.com/kestrelchess/kestrel/pkg/common"
)

const (
	InputSize  = 64 * 12
	HiddenSize = 512
)

const (
	add    = 1
	remove = -add
)

const maxHeight = 256

// EvaluationService evaluates through a single-hidden-layer network.
// The hidden layer is an accumulator stack indexed by search height:
// MakeMove applies the dirty-piece deltas of one move to a fresh copy
// of the top accumulator, UnmakeMove just pops.
type EvaluationService struct {
	*Weights
	updates       updates
	hiddenOutputs [maxHeight + 1][HiddenSize]float32
	currentHidden int
}

type Weights struct {
	HiddenWeights [InputSize * HiddenSize]float32
	HiddenBiases  [HiddenSize]float32
	OutputWeights [HiddenSize]float32
	OutputBias    float32
}

type updates struct {
	indices [8]int16
	coeffs  [8]int8
	size    int
}

func (u *updates) add(index int16, coeff int8) {
	u.indices[u.size] = index
	u.coeffs[u.size] = coeff
	u.size++
}

func NewEvaluationService(weights *Weights) *EvaluationService {
	var es = &EvaluationService{}
	es.Weights = weights
	return es
}

// EvaluateQuick reads the network on the current accumulator, scales
// to centipawns and tapers by remaining material and the 50-move rule.
func (e *EvaluationService) EvaluateQuick(p *Position) int {
	var output = int(e.quickFeed())
	const maxEval = 15_000
	output = Max(-maxEval, Min(maxEval, output))
	var npMaterial = 4*PopCount(p.Knights|p.Bishops) + 6*PopCount(p.Rooks) + 12*PopCount(p.Queens)
	output = output * (160 + npMaterial) / 160
	output = output * (200 - p.Rule50) / 200
	if !p.WhiteMove {
		output = -output
	}
	return output
}

func (e *EvaluationService) Evaluate(p *Position) int {
	e.Init(p)
	return e.EvaluateQuick(p)
}

func (e *EvaluationService) Init(p *Position) {
	e.currentHidden = 0
	var hiddenOutputs = e.hiddenOutputs[e.currentHidden][:]

	copy(hiddenOutputs, e.HiddenBiases[:])

	for sq := 0; sq < 64; sq++ {
		var piece, side = p.GetPieceTypeAndSide(sq)
		if piece == Empty {
			continue
		}
		var index = int(calculateNetInputIndex(side, piece, sq))
		var weights = e.HiddenWeights[index*HiddenSize : (index+1)*HiddenSize]
		for j := range hiddenOutputs {
			hiddenOutputs[j] += weights[j]
		}
	}
}

func calculateNetInputIndex(whiteSide bool, pieceType, square int) int16 {
	var piece12 = pieceType - Pawn
	if !whiteSide {
		piece12 += 6
	}
	return int16(square ^ piece12<<6)
}

func (e *EvaluationService) MakeMove(p *Position, m Move) {
	e.updates.size = 0

	if m == MoveEmpty {
		e.updateHidden()
		return
	}

	var from, to, movingPiece, capturedPiece, epCapSq, promotionPt, isCastling = unpackMove(p, m)

	e.updates.add(calculateNetInputIndex(p.WhiteMove, movingPiece, from), remove)

	if capturedPiece != Empty {
		var capSq = to
		if epCapSq != SquareNone {
			capSq = epCapSq
		}
		e.updates.add(calculateNetInputIndex(!p.WhiteMove, capturedPiece, capSq), remove)
	}

	var pieceAfterMove = movingPiece
	if promotionPt != Empty {
		pieceAfterMove = promotionPt
	}
	e.updates.add(calculateNetInputIndex(p.WhiteMove, pieceAfterMove, to), add)

	if isCastling {
		var rookRemoveSq, rookAddSq int
		if p.WhiteMove {
			if to == SquareG1 {
				rookRemoveSq = SquareH1
				rookAddSq = SquareF1
			} else {
				rookRemoveSq = SquareA1
				rookAddSq = SquareD1
			}
		} else {
			if to == SquareG8 {
				rookRemoveSq = SquareH8
				rookAddSq = SquareF8
			} else {
				rookRemoveSq = SquareA8
				rookAddSq = SquareD8
			}
		}

		e.updates.add(calculateNetInputIndex(p.WhiteMove, Rook, rookRemoveSq), remove)
		e.updates.add(calculateNetInputIndex(p.WhiteMove, Rook, rookAddSq), add)
	}

	e.updateHidden()
}

func (e *EvaluationService) UnmakeMove() {
	e.currentHidden--
}

func (e *EvaluationService) updateHidden() {
	var prev = e.hiddenOutputs[e.currentHidden][:]
	e.currentHidden++
	var curr = e.hiddenOutputs[e.currentHidden][:]
	copy(curr, prev)

	for i := 0; i < e.updates.size; i++ {
		var index = int(e.updates.indices[i])
		var weights = e.HiddenWeights[index*HiddenSize : (index+1)*HiddenSize]
		if e.updates.coeffs[i] == add {
			for j := range curr {
				curr[j] += weights[j]
			}
		} else {
			for j := range curr {
				curr[j] -= weights[j]
			}
		}
	}
}

func (e *EvaluationService) quickFeed() float32 {
	var hiddenOutputs = e.hiddenOutputs[e.currentHidden][:]
	var output = e.OutputBias
	for i := range hiddenOutputs {
		output += relu(hiddenOutputs[i]) * e.OutputWeights[i]
	}
	return output * outputScale
}

// outputScale converts the network's logistic units to centipawns:
// 400/ln(10) rounded to the value the net was trained against.
const outputScale = 174

func relu(x float32) float32 {
	if x < 0 {
		return 0
	}
	return x
}

func unpackMove(p *Position, m Move) (from, to, movingPiece, capturedPiece, epCapSq, promotionPt int, isCastling bool) {
	from = m.From()
	to = m.To()
	movingPiece = m.MovingPiece()
	capturedPiece = m.CapturedPiece()
	promotionPt = m.Promotion()
	epCapSq = SquareNone
	if movingPiece == King {
		if p.WhiteMove {
			if from == SquareE1 && (to == SquareG1 || to == SquareC1) {
				isCastling = true
			}
		} else {
			if from == SquareE8 && (to == SquareG8 || to == SquareC8) {
				isCastling = true
			}
		}
	} else if movingPiece == Pawn {
		if to == p.EpSquare && File(from) != File(to) {
			if p.WhiteMove {
				epCapSq = to - 8
			} else {
				epCapSq = to + 8
			}
		}
	}
	return
}
