package madj

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	cases := []struct {
		name     string
		buf      []byte
		expected bool
	}{
		{"valid", []byte{'M', 'A', 'D', 'J'}, true},
		{"validWithTrailing", []byte{'M', 'A', 'D', 'J', 0, 0}, true},
		{"invalid", []byte{'R', 'I', 'F', 'F'}, false},
		{"short", []byte{'M', 'A', 'D'}, false},
		{"empty", []byte{}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Probe(tc.buf))
		})
	}
}
