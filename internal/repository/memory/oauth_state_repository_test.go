package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuthStateIsSingleUse(t *testing.T) {
	repo := NewOAuthStateRepository(time.Minute)
	repo.Save("abc", "google")

	assert.True(t, repo.Consume("abc", "google"))
	assert.False(t, repo.Consume("abc", "google"))
}

func TestOAuthStateChecksProvider(t *testing.T) {
	repo := NewOAuthStateRepository(time.Minute)
	repo.Save("abc", "google")

	assert.False(t, repo.Consume("abc", "github"))
	assert.False(t, repo.Consume("unknown", "google"))
}

func TestOAuthStateExpires(t *testing.T) {
	repo := NewOAuthStateRepository(10 * time.Millisecond)
	repo.Save("abc", "google")
	time.Sleep(30 * time.Millisecond)

	assert.False(t, repo.Consume("abc", "google"))
}
