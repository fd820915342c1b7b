package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace, collapses internal runs of
// whitespace to single spaces, and applies Unicode NFC normalization so the
// same customer name always compares and stores identically.
func NormalizeName(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return norm.NFC.String(strings.Join(fields, " "))
}
