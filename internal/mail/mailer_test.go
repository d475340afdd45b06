package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetEmailEmbedsLink(t *testing.T) {
	subject, body := ResetEmail("http://localhost:3000", "abc123")

	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, body, "http://localhost:3000/reset-password?token=abc123")
	assert.Contains(t, body, "expires in 1 hour")
}

func TestResetEmailTrimsTrailingSlash(t *testing.T) {
	_, body := ResetEmail("https://cinescope.example/", "abc123")

	assert.Contains(t, body, "https://cinescope.example/reset-password?token=abc123")
	assert.NotContains(t, body, "example//reset-password")
}
