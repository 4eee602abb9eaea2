package common

import (
	"strings"
	"unicode"
)

func Min(l, r int) int {
	if l < r {
		return l
	}
	return r
}

func Max(l, r int) int {
	if l > r {
		return l
	}
	return r
}

func let(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}

const pieceChars = "pnbrqk"

func pieceFromChar(ch rune) (piece int, side bool) {
	side = unicode.IsUpper(ch)
	var i = strings.IndexRune(pieceChars, unicode.ToLower(ch))
	if i < 0 {
		return Empty, false
	}
	return Pawn + i, side
}

func pieceChar(piece int, side bool) byte {
	var ch = pieceChars[piece-Pawn]
	if side {
		return ch - 'a' + 'A'
	}
	return ch
}
