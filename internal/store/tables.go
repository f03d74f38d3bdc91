package store

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tableNamePattern    = regexp.MustCompile(`^[a-z0-9_]{1,63}$`)
	generationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// UnitTableName derives the per-(generation, level) code table name. The
// level is a single digit, so the name maps back to exactly one pair; ids
// that differ only in case share a table, as unquoted identifiers would.
func UnitTableName(generationID string, level int) (string, error) {
	if !generationIDPattern.MatchString(generationID) {
		return "", fmt.Errorf("generation id %q may only contain letters, digits and underscores", generationID)
	}
	if level < 0 || level > 9 {
		return "", fmt.Errorf("unit level %d must be a single digit", level)
	}
	name := strings.ToLower(fmt.Sprintf("%s%d_codes", generationID, level))
	if !ValidTableName(name) {
		return "", fmt.Errorf("cannot derive a table name from generation %q level %d", generationID, level)
	}
	return name, nil
}

// ValidTableName reports whether name may be used as a dynamic table name.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
