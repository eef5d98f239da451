package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		seq      int
		year     int
		expected string
	}{
		{
			name:     "default invoice format",
			format:   "INV-{YYYY}-{SEQ:4}",
			seq:      7,
			year:     2024,
			expected: "INV-2024-0007",
		},
		{
			name:     "two digit year",
			format:   "Q{YY}/{SEQ:3}",
			seq:      42,
			year:     2026,
			expected: "Q26/042",
		},
		{
			name:     "sequence wider than padding is not truncated",
			format:   "INV-{SEQ:2}",
			seq:      12345,
			year:     2024,
			expected: "INV-12345",
		},
		{
			name:     "no year token",
			format:   "AGR-{SEQ:5}",
			seq:      1,
			year:     2024,
			expected: "AGR-00001",
		},
		{
			name:     "literal text preserved",
			format:   "ACME/{YYYY}/invoice-{SEQ:4}",
			seq:      99,
			year:     2025,
			expected: "ACME/2025/invoice-0099",
		},
		{
			name:     "bare sequence token pads to three digits",
			format:   "INV-{YYYY}-{SEQ}",
			seq:      7,
			year:     2024,
			expected: "INV-2024-007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, err := Format(tt.format, tt.seq, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, number)
		})
	}

	t.Run("format without a sequence token errors", func(t *testing.T) {
		_, err := Format("INV-{YYYY}", 7, 2024)
		require.ErrorIs(t, err, ErrNoSequenceToken)
	})
}

func TestExtractSequence(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		expected int
		wantErr  error
	}{
		{
			name:     "standard invoice number",
			number:   "INV-2024-0007",
			expected: 7,
		},
		{
			name:     "last digit run wins over year",
			number:   "Q26/042",
			expected: 42,
		},
		{
			name:     "unpadded sequence",
			number:   "INV-12345",
			expected: 12345,
		},
		{
			name:     "trailing literal after digits",
			number:   "0005-FINAL",
			expected: 5,
		},
		{
			name:    "no digits at all",
			number:  "DRAFT",
			wantErr: ErrNoSequenceDigits,
		},
		{
			name:    "empty string",
			number:  "",
			wantErr: ErrNoSequenceDigits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ExtractSequence(tt.number)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seq)
		})
	}
}

func TestFormatExtractRoundTrip(t *testing.T) {
	formats := []string{
		"INV-{YYYY}-{SEQ:4}",
		"QTE-{YY}-{SEQ:6}",
		"AGR/{SEQ:1}",
	}
	for _, format := range formats {
		for _, seq := range []int{1, 7, 999, 10000} {
			number, err := Format(format, seq, 2024)
			require.NoError(t, err)
			got, err := ExtractSequence(number)
			require.NoError(t, err, "format %s seq %d", format, seq)
			assert.Equal(t, seq, got, "format %s", format)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr error
	}{
		{
			name:   "valid default format",
			format: "INV-{YYYY}-{SEQ:4}",
		},
		{
			name:    "missing sequence token",
			format:  "INV-{YYYY}",
			wantErr: ErrNoSequenceToken,
		},
		{
			name:    "duplicate sequence tokens",
			format:  "{SEQ:2}-{SEQ:4}",
			wantErr: ErrMultipleSequenceTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("digits after sequence token are ambiguous", func(t *testing.T) {
		assert.Error(t, ValidateFormat("{SEQ:4}-{YYYY}"))
		assert.Error(t, ValidateFormat("{SEQ:4}v2"))
	})

	t.Run("bare sequence token is accepted", func(t *testing.T) {
		assert.NoError(t, ValidateFormat("INV-{YYYY}-{SEQ}"))
	})
}
