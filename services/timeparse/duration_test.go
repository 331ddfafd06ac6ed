package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDuration(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
		ok   bool
	}{
		{"for 30 minutes", 30 * time.Minute, true},
		{"45 mins", 45 * time.Minute, true},
		{"2 hours", 2 * time.Hour, true},
		{"1.5 hours", 90 * time.Minute, true},
		{"an hour", time.Hour, true},
		{"half an hour", 30 * time.Minute, true},
		{"an hour and a half", 90 * time.Minute, true},
		{"a quarter of an hour", 15 * time.Minute, true},
		{"all day", 8 * time.Hour, true},
		{"book a meeting with sam", 0, false},
		{"0 minutes", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ResolveDuration(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMentionsDuration(t *testing.T) {
	assert.True(t, MentionsDuration("how long? maybe twenty minutes"))
	assert.True(t, MentionsDuration("2 hours"))
	assert.False(t, MentionsDuration("book a meeting with sam tomorrow"))
}
