package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDefaults(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		location   string
		department string
	}{
		{
			name:       "both directories populated",
			raw:        `{"directories": {"locations": ["HQ", "Harbour"], "departments": ["Kitchen"]}}`,
			location:   "HQ",
			department: "Kitchen",
		},
		{
			name:       "empty departments falls back independently",
			raw:        `{"directories": {"locations": ["HQ"], "departments": []}}`,
			location:   "HQ",
			department: "general",
		},
		{
			name:       "missing directories key",
			raw:        `{"timezone": "Europe/Madrid"}`,
			location:   "default",
			department: "general",
		},
		{
			name:       "empty blob",
			raw:        `{}`,
			location:   "default",
			department: "general",
		},
		{
			name:       "malformed JSON",
			raw:        `{"directories": `,
			location:   "default",
			department: "general",
		},
		{
			name:       "empty string",
			raw:        "",
			location:   "default",
			department: "general",
		},
		{
			name:       "blank first entries",
			raw:        `{"directories": {"locations": [""], "departments": ["", "Kitchen"]}}`,
			location:   "default",
			department: "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaults := DeriveDefaults(tt.raw)
			assert.Equal(t, tt.location, defaults.Location)
			assert.Equal(t, tt.department, defaults.Department)
		})
	}
}
