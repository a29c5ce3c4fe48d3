package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeUSOrCanada(t *testing.T) {
	tests := []struct {
		name string
		loc  string
		want bool
	}{
		{"US state abbrev", "San Francisco, CA", true},
		{"US state token mid-string", "Remote, NY, Hybrid", true},
		{"explicit USA", "Austin, USA", true},
		{"united states", "United States (Remote)", true},
		{"remote US", "Remote, US", true},
		{"canada", "Montreal, Canada", true},
		{"toronto", "Toronto, ON", true},
		{"vancouver", "Vancouver, BC", true},
		{"ontario", "Waterloo, Ontario", true},
		{"germany", "Workday-only, Germany", false},
		{"uk", "London, United Kingdom", false},
		{"plain remote", "Remote", false},
		{"empty", "", false},
		{"australia does not match ' us'", "Sydney, Australia", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeUSOrCanada(tt.loc))
		})
	}
}

func TestIsOpenStatus(t *testing.T) {
	assert.True(t, IsOpenStatus("open"))
	assert.True(t, IsOpenStatus("Open "))
	assert.True(t, IsOpenStatus("✅"))
	assert.False(t, IsOpenStatus("closed"))
	assert.False(t, IsOpenStatus("\U0001f512")) // locked emoji some boards use
	assert.False(t, IsOpenStatus(""))
}
