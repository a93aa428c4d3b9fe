package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ProjectKeyKey is the cache key for an API-key-to-project lookup. The raw
// API key is a credential, so only its digest appears in the key space.
func ProjectKeyKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "project:key:" + hex.EncodeToString(sum[:])
}

// ProjectStatsKey is the cache key for a project's dashboard counters.
func ProjectStatsKey(projectID int64) string {
	return fmt.Sprintf("project:stats:%d", projectID)
}
