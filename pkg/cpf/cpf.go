// Package cpf validates Brazilian CPF numbers using the two check-digit
// algorithm. Validation is a pure function: no I/O, fully deterministic.
package cpf

import "errors"

var (
	// ErrInvalidFormat means the input does not contain exactly 11 digits
	// after stripping formatting characters.
	ErrInvalidFormat = errors.New("cpf must contain exactly 11 digits")
	// ErrInvalidChecksum means the digits fail the check-digit algorithm,
	// including the all-identical-digits degenerate case.
	ErrInvalidChecksum = errors.New("cpf checksum is invalid")
)

// Validate normalizes and verifies a CPF. It strips every non-digit
// character, requires exactly 11 digits, rejects repeated-digit sequences,
// and checks both verification digits. On success it returns the 11-digit
// normalized form.
func Validate(raw string) (string, error) {
	digits := make([]int, 0, 11)
	normalized := make([]byte, 0, 11)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
			normalized = append(normalized, c)
		}
	}
	if len(digits) != 11 {
		return "", ErrInvalidFormat
	}

	// A CPF with all digits identical passes the arithmetic below but is
	// not a valid document.
	identical := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			identical = false
			break
		}
	}
	if identical {
		return "", ErrInvalidChecksum
	}

	if checkDigit(digits, 9) != digits[9] || checkDigit(digits, 10) != digits[10] {
		return "", ErrInvalidChecksum
	}
	return string(normalized), nil
}

// checkDigit computes the verification digit at position pos (9 or 10) from
// the preceding digits. The weight for digit i is pos+1-i; a result of 10
// maps to 0.
func checkDigit(digits []int, pos int) int {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += digits[i] * (pos + 1 - i)
	}
	d := (sum * 10) % 11
	if d == 10 {
		d = 0
	}
	return d
}
