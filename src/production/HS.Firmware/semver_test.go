package firmware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		v1, v2   string
		expected int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.1.0", "2.0.9", 1},
		{"1.9.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.0", "1.0.0", 0},
		{"1.2", "1.2.1", -1},
		{"2", "1.9.9", 1},
		{"2.1.0-beta1", "2.1.0", 0},
		{"2.1.0-rc2", "2.1.1", -1},
		{"0.0.1", "0.0.2", -1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, CompareVersions(tc.v1, tc.v2), "%s vs %s", tc.v1, tc.v2)
	}
}

func TestIsValidVersion(t *testing.T) {
	assert.True(t, IsValidVersion("2.1.0"))
	assert.True(t, IsValidVersion("0.0.1"))
	assert.True(t, IsValidVersion("10.20.30"))
	assert.True(t, IsValidVersion("2.1.0-beta1"))

	assert.False(t, IsValidVersion("2.1"))
	assert.False(t, IsValidVersion("2.1.0.4"))
	assert.False(t, IsValidVersion("v2.1.0"))
	assert.False(t, IsValidVersion("2.1.0-"))
	assert.False(t, IsValidVersion("2.1.0-beta.1"))
	assert.False(t, IsValidVersion(""))
}
