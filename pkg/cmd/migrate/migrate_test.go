package migrate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPrepareURLForDB(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "postgresql://u:p@h/db", "postgresql://u:p@h/db?sslmode=disable"},
		{"with params", "postgresql://u:p@h/db?x=1", "postgresql://u:p@h/db?x=1&sslmode=disable"},
		{"sslmode kept", "postgresql://u:p@h/db?sslmode=require", "postgresql://u:p@h/db?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, PrepareURLForDB(tt.url), tt.want)
		})
	}
}
