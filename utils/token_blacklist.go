package utils

import (
	"sync"
	"time"
)

var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.Mutex
)

// BlacklistToken revokes a token until it would have expired anyway.
func BlacklistToken(token string, until time.Time) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()

	pruneBlacklistLocked()
	blacklist[token] = until
}

// IsTokenBlacklisted reports whether a token has been revoked by logout.
func IsTokenBlacklisted(token string) bool {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()

	until, ok := blacklist[token]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(blacklist, token)
		return false
	}
	return true
}

func pruneBlacklistLocked() {
	now := time.Now()
	for tok, until := range blacklist {
		if now.After(until) {
			delete(blacklist, tok)
		}
	}
}
