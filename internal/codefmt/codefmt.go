// Package codefmt expands country code templates into printable codes.
//
// A template is a sequence of tokens separated by "/" (kept in the output)
// or by whitespace (concatenated). Known tokens are replaced with product
// and batch data; anything else is copied as written. The result may carry
// the UniquePlaceholder, which ExpandUnit later substitutes per unit.
package codefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"codegen-backend/internal/gs1"
	"codegen-backend/internal/timeutil"
)

// Template tokens.
const (
	TokenRegistrationNo    = "registrationNo"
	TokenNDC               = "NDC"
	TokenGTIN              = "GTIN"
	TokenBatchNo           = "batchNo"
	TokenManufacturingDate = "manufacturingDate"
	TokenExpiryDate        = "expiryDate"
	TokenFNC               = "<FNC>"
	TokenCRMURL            = "CRMURL"
)

// UniquePlaceholder marks where each unit's own identifier goes.
const UniquePlaceholder = "uniqueCode"

// GroupSeparator is the FNC1 group separator emitted for <FNC>.
const GroupSeparator = "\x1d"

// Context carries the per-request values a template can reference.
type Context struct {
	Level             int
	RegistrationNo    string
	NDC               string
	GTIN              string
	BatchNo           string
	ManufacturingDate time.Time
	ExpiryDate        time.Time
}

// Formatter renders templates with a fixed configuration snapshot.
type Formatter struct {
	CRMURL   string
	Location *time.Location
}

func NewFormatter(crmURL string, loc *time.Location) *Formatter {
	return &Formatter{CRMURL: crmURL, Location: loc}
}

// Format expands every token of template using ctx.
func (f *Formatter) Format(template string, ctx Context) (string, error) {
	slashed := strings.Contains(template, "/")

	var elements []string
	if slashed {
		elements = strings.Split(template, "/")
	} else {
		elements = strings.Fields(template)
	}

	parts := make([]string, 0, len(elements))
	for _, element := range elements {
		if element == "" {
			continue
		}
		value, err := f.expand(strings.TrimSpace(element), ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, value)
	}

	if slashed {
		return strings.Join(parts, "/"), nil
	}
	return strings.Join(parts, ""), nil
}

func (f *Formatter) expand(token string, ctx Context) (string, error) {
	switch token {
	case TokenRegistrationNo:
		return ctx.RegistrationNo, nil
	case TokenNDC:
		return ctx.NDC, nil
	case TokenGTIN:
		return GTIN(ctx.Level, ctx.GTIN)
	case TokenBatchNo:
		return ctx.BatchNo, nil
	case TokenManufacturingDate:
		return timeutil.YYMMDD(ctx.ManufacturingDate, f.Location), nil
	case TokenExpiryDate:
		return timeutil.YYMMDD(ctx.ExpiryDate, f.Location), nil
	case TokenFNC:
		return GroupSeparator, nil
	case TokenCRMURL:
		return f.CRMURL, nil
	default:
		return token, nil
	}
}

// GTIN prefixes the fragment with the packaging level and appends its check digit.
func GTIN(level int, fragment string) (string, error) {
	body := strconv.Itoa(level) + fragment
	check, err := gs1.GTINCheckDigit(body)
	if err != nil {
		return "", fmt.Errorf("failed to compute GTIN for level %d: %w", level, err)
	}
	return body + strconv.Itoa(check), nil
}

// ExpandUnit substitutes uniqueID for every placeholder in a formatted code.
func ExpandUnit(formatted, uniqueID string) string {
	return strings.ReplaceAll(formatted, UniquePlaceholder, uniqueID)
}
