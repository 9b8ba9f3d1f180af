package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 6, "padded"},
		{"abcdefgh", 3, "abc..."},
		{"привет мир", 6, "привет..."},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateForLog(tt.in, tt.limit), tt.in)
	}
}
