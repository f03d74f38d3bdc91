package codefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() Context {
	return Context{
		Level:             0,
		RegistrationNo:    "REG-77",
		NDC:               "12345-678",
		GTIN:              "890123400001",
		BatchNo:           "B42",
		ManufacturingDate: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatSlashTemplate(t *testing.T) {
	f := NewFormatter("https://crm.example.com", time.UTC)

	got, err := f.Format("CRMURL/GTIN/batchNo/uniqueCode", testContext())
	require.NoError(t, err)

	gtin, err := GTIN(0, "890123400001")
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/"+gtin+"/B42/uniqueCode", got)
}

func TestFormatWhitespaceTemplateConcatenates(t *testing.T) {
	f := NewFormatter("", time.UTC)

	got, err := f.Format("(01) GTIN <FNC> (17) expiryDate (10) batchNo (11) manufacturingDate (21) uniqueCode", testContext())
	require.NoError(t, err)

	gtin, _ := GTIN(0, "890123400001")
	want := "(01)" + gtin + GroupSeparator + "(17)261231(10)B42(11)240105(21)uniqueCode"
	assert.Equal(t, want, got)
}

func TestFormatPassesUnknownTokensThrough(t *testing.T) {
	f := NewFormatter("", time.UTC)

	got, err := f.Format("registrationNo  NDC  ???", testContext())
	require.NoError(t, err)
	assert.Equal(t, "REG-7712345-678???", got)

	got, err = f.Format("a//b/ NDC ", testContext())
	require.NoError(t, err)
	assert.Equal(t, "a/b/12345-678", got)
}

func TestFormatRejectsUncomputableGTIN(t *testing.T) {
	f := NewFormatter("", time.UTC)
	ctx := testContext()
	ctx.GTIN = "12"

	_, err := f.Format("GTIN", ctx)
	assert.Error(t, err)

	// Templates that do not reference GTIN are unaffected.
	_, err = f.Format("batchNo", ctx)
	assert.NoError(t, err)
}

func TestGTIN(t *testing.T) {
	got, err := GTIN(1, "061414100001")
	require.NoError(t, err)
	assert.Equal(t, "10614141000019", got)
}

func TestExpandUnit(t *testing.T) {
	assert.Equal(t, "x/GEN10ABC123/ GEN10ABC123", ExpandUnit("x/uniqueCode/ uniqueCode", "GEN10ABC123"))
	assert.Equal(t, "plain", ExpandUnit("plain", "id"))
}
