package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's single-device login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// AttemptStrikesKey returns the cache key for an attempt's violation strike counter.
func (r *CacheKeyStruct) AttemptStrikesKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:strikes", attemptID)
}

var CacheKey = NewCacheKeyStruct()
