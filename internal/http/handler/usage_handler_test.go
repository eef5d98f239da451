package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDays(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
		wantErr  bool
	}{
		{name: "absent means service default", query: "", expected: 0},
		{name: "explicit window", query: "?days=90", expected: 90},
		{name: "non-numeric is rejected", query: "?days=abc", wantErr: true},
		{name: "trailing junk is rejected", query: "?days=30d", wantErr: true},
		{name: "negative parses and is range-checked downstream", query: "?days=-1", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/usage/analytics"+tt.query, nil)
			days, err := parseDays(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}
}
