package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"4K", 4096},
		{"4k", 4096},
		{"64M", 64 << 20},
		{"1G", 1 << 30},
		{" 8M ", 8 << 20},
	}
	for _, tc := range cases {
		got, err := parseSize(tc.in)
		assert.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}

	for _, in := range []string{"", "abc", "-1M", "0", "1T"} {
		_, err := parseSize(in)
		assert.Error(t, err, "input %q", in)
	}
}
