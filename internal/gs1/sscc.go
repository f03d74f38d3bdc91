package gs1

import (
	"fmt"
	"strconv"
	"strings"
)

const referenceLength = 16

// maxReference is the largest value that still renders in 16 digits.
const maxReference = 9999999999999999

// SSCC assembles an 18 character container code from the extension digit,
// the company prefix and a per-prefix sequence number.
//
// The 16 digit reference is the prefix right-padded with zeros plus the
// sequence, so consecutive sequences map to consecutive references.
func SSCC(extension int, prefix string, sequence int64) (string, error) {
	if extension < 0 || extension > 9 {
		return "", fmt.Errorf("extension digit %d out of range", extension)
	}
	base, err := PrefixBase(prefix)
	if err != nil {
		return "", err
	}
	if sequence < 0 || sequence > maxReference-base {
		return "", fmt.Errorf("sequence %d overflows the reference space of prefix %s", sequence, prefix)
	}

	reference := fmt.Sprintf("%0*d", referenceLength, base+sequence)
	body := strconv.Itoa(extension) + reference
	return body + strconv.Itoa(CheckDigit(body, SSCCLength)), nil
}

// PrefixBase parses a company prefix into the numeric base of its reference space.
func PrefixBase(prefix string) (int64, error) {
	if prefix == "" || len(prefix) > referenceLength {
		return 0, fmt.Errorf("%w: company prefix %q must have 1-%d digits", ErrInvalidDigits, prefix, referenceLength)
	}
	if err := Validate(prefix, len(prefix)); err != nil {
		return 0, err
	}
	padded := prefix + strings.Repeat("0", referenceLength-len(prefix))
	base, err := strconv.ParseInt(padded, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse company prefix %q: %w", prefix, err)
	}
	return base, nil
}
