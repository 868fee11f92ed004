package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// OAuthStateRepository remembers the state values handed to the identity
// provider so a callback can only be completed once.
type OAuthStateRepository struct {
	cache *cache.Cache
}

func NewOAuthStateRepository(ttl time.Duration) *OAuthStateRepository {
	return &OAuthStateRepository{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *OAuthStateRepository) Save(state string, provider string) {
	r.cache.Set(state, provider, cache.DefaultExpiration)
}

// Consume reports whether state was issued for provider and forgets it.
func (r *OAuthStateRepository) Consume(state string, provider string) bool {
	x, found := r.cache.Get(state)
	if !found {
		return false
	}
	r.cache.Delete(state)
	return x.(string) == provider
}
