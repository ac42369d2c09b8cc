package arcgis

import (
	"regexp"
	"strings"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// EscapeLiteral doubles embedded single quotes so s can sit inside a quoted
// SQL-92 string literal.
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// ValidateField rejects field names that are not plain identifiers.
func ValidateField(field string) error {
	if !fieldNameRe.MatchString(field) {
		return geometry.NewValidationError("field", field, "not a valid attribute name")
	}
	return nil
}

// Equals builds "field = 'value'" with value escaped.
func Equals(field, value string) (string, error) {
	if err := ValidateField(field); err != nil {
		return "", err
	}
	return field + " = '" + EscapeLiteral(value) + "'", nil
}

// EqualsAny builds "field = 'a' OR field = 'b' ..." with every value escaped.
func EqualsAny(field string, values []string) (string, error) {
	if err := ValidateField(field); err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", geometry.NewValidationError("where", "", "no values to match")
	}
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = field + " = '" + EscapeLiteral(v) + "'"
	}
	return strings.Join(terms, " OR "), nil
}
