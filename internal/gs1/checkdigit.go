package gs1

import (
	"errors"
	"fmt"
)

// Input lengths of the two check digit variants.
const (
	GTINLength = 13
	SSCCLength = 17
)

var ErrInvalidDigits = errors.New("invalid digit string")

// CheckDigit computes the GS1 mod-10 check digit over the first length digits.
// The caller guarantees digits holds exactly length numeric characters;
// use Compute when the input is not trusted.
//
// Weights alternate 3,1,3,1... starting at the first (leftmost) position.
func CheckDigit(digits string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		d := int(digits[i] - '0')
		if (i+1)%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	nearestTen := (sum + 9) / 10 * 10
	return nearestTen - sum
}

// Compute validates digits and returns its check digit.
func Compute(digits string, length int) (int, error) {
	if err := Validate(digits, length); err != nil {
		return 0, err
	}
	return CheckDigit(digits, length), nil
}

// Validate reports whether digits is exactly length ASCII digits.
func Validate(digits string, length int) error {
	if len(digits) != length {
		return fmt.Errorf("%w: want %d digits, got %d (%q)", ErrInvalidDigits, length, len(digits), digits)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return fmt.Errorf("%w: non-numeric character at position %d (%q)", ErrInvalidDigits, i+1, digits)
		}
	}
	return nil
}

// GTINCheckDigit returns the check digit for a level digit + GTIN fragment.
func GTINCheckDigit(digits string) (int, error) {
	return Compute(digits, GTINLength)
}

// SSCCCheckDigit returns the check digit for an extension digit + 16 digit reference.
func SSCCCheckDigit(digits string) (int, error) {
	return Compute(digits, SSCCLength)
}
