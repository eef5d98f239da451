// Package numbering formats and parses document numbers such as
// "INV-2024-0007" from company-configured format strings.
//
// A format string is literal text plus tokens:
//
//	{YYYY}   four digit year
//	{YY}     two digit year
//	{SEQ:n}  sequence number zero-padded to n digits
//	{SEQ}    sequence number zero-padded to 3 digits
//
// Parsing does not depend on the format: the sequence is recovered from the
// trailing digit run of the number, so numbers remain parseable after a
// company changes its format.
package numbering

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoSequenceToken indicates a format string without a sequence token
	ErrNoSequenceToken = errors.New("numbering: format contains no {SEQ} token")

	// ErrMultipleSequenceTokens indicates a format with more than one sequence token
	ErrMultipleSequenceTokens = errors.New("numbering: format contains multiple {SEQ} tokens")

	// ErrNoSequenceDigits indicates a document number with no digits to parse
	ErrNoSequenceDigits = errors.New("numbering: number contains no sequence digits")
)

// defaultSeqWidth pads a bare {SEQ} token
const defaultSeqWidth = 3

var seqTokenPattern = regexp.MustCompile(`\{SEQ(?::(\d{1,2}))?\}`)

// Format renders a document number from a format string, a sequence value
// and the issuing year. An unknown or malformed token is left as literal
// text; sequence values wider than the configured padding are not
// truncated. A format without a sequence token is an error so a misstored
// format cannot silently issue duplicate numbers.
func Format(format string, seq int, year int) (string, error) {
	out := strings.ReplaceAll(format, "{YYYY}", fmt.Sprintf("%04d", year))
	out = strings.ReplaceAll(out, "{YY}", fmt.Sprintf("%02d", year%100))
	if !seqTokenPattern.MatchString(out) {
		return "", ErrNoSequenceToken
	}
	out = seqTokenPattern.ReplaceAllStringFunc(out, func(token string) string {
		width := defaultSeqWidth
		if digits := seqTokenPattern.FindStringSubmatch(token)[1]; digits != "" {
			width, _ = strconv.Atoi(digits)
		}
		return fmt.Sprintf("%0*d", width, seq)
	})
	return out, nil
}

// ExtractSequence recovers the sequence value from a document number by
// parsing its last run of consecutive digits. "INV-2024-0007" yields 7.
func ExtractSequence(number string) (int, error) {
	end := -1
	for i := len(number) - 1; i >= 0; i-- {
		if number[i] >= '0' && number[i] <= '9' {
			end = i + 1
			break
		}
	}
	if end == -1 {
		return 0, ErrNoSequenceDigits
	}
	start := end - 1
	for start > 0 && number[start-1] >= '0' && number[start-1] <= '9' {
		start--
	}
	seq, err := strconv.Atoi(number[start:end])
	if err != nil {
		return 0, ErrNoSequenceDigits
	}
	return seq, nil
}

// ValidateFormat checks that a format string can issue unambiguous numbers.
// It must contain exactly one sequence token and the sequence token must be
// the last token so ExtractSequence reads the right digit run.
func ValidateFormat(format string) error {
	matches := seqTokenPattern.FindAllStringIndex(format, -1)
	switch {
	case len(matches) == 0:
		return ErrNoSequenceToken
	case len(matches) > 1:
		return ErrMultipleSequenceTokens
	}
	tail := format[matches[0][1]:]
	if strings.ContainsAny(tail, "0123456789") || strings.Contains(tail, "{YYYY}") || strings.Contains(tail, "{YY}") {
		return fmt.Errorf("numbering: digits after the sequence token make numbers ambiguous: %q", format)
	}
	return nil
}
