package codec

import (
	"bytes"
	"strconv"
	"unsafe"

	"flat-mapper/maperr"
)

// ParseInt parses a decimal integer: an optional leading '-' followed by digits.
// There is no overflow check; the accumulator wraps.
func ParseInt(cell []byte) (int64, error) {
	if len(cell) == 0 {
		return 0, maperr.ErrEmptyCell
	}

	neg := cell[0] == '-'
	digits := cell
	if neg {
		digits = cell[1:]
		if len(digits) == 0 {
			return 0, maperr.ErrSyntax
		}
	}

	var n int64

	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, maperr.ErrSyntax
		}

		n = n*10 + int64(c-'0')
	}

	if neg {
		return -n, nil
	}

	return n, nil
}

// ParseUint parses an unsigned decimal integer made of digits only.
func ParseUint(cell []byte) (uint64, error) {
	if len(cell) == 0 {
		return 0, maperr.ErrEmptyCell
	}

	var n uint64

	for _, c := range cell {
		if c < '0' || c > '9' {
			return 0, maperr.ErrSyntax
		}

		n = n*10 + uint64(c-'0')
	}

	return n, nil
}

// ParseFloat parses a floating point number of the given bit size.
func ParseFloat(cell []byte, bitSize int) (float64, error) {
	if len(cell) == 0 {
		return 0, maperr.ErrEmptyCell
	}

	return strconv.ParseFloat(view(cell), bitSize)
}

var (
	trueWords  = [][]byte{[]byte("true"), []byte("yes"), []byte("on"), []byte("1"), []byte("t"), []byte("y")}
	falseWords = [][]byte{[]byte("false"), []byte("no"), []byte("off"), []byte("0"), []byte("f"), []byte("n")}
)

// ParseBool accepts true/false, yes/no, on/off, 1/0, t/f and y/n in any case.
func ParseBool(cell []byte) (bool, error) {
	if len(cell) == 0 {
		return false, maperr.ErrEmptyCell
	}

	for _, w := range trueWords {
		if bytes.EqualFold(cell, w) {
			return true, nil
		}
	}

	for _, w := range falseWords {
		if bytes.EqualFold(cell, w) {
			return false, nil
		}
	}

	return false, maperr.ErrSyntax
}

// view returns the cell as a string without copying. The result must not
// outlive the call that received the cell.
func view(cell []byte) string {
	if len(cell) == 0 {
		return ""
	}

	return unsafe.String(&cell[0], len(cell))
}
