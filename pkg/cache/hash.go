package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 of data. Converted artifacts are keyed by
// the hash of the SVG they came from.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. Layout requests are keyed this
// way, so two requests for the same reduced graph share an entry.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %T: %w", v, err)
	}
	return Hash(data), nil
}

// hashKey returns kind:sha256(parts). Key parts are strings and plain
// option structs, which always encode.
func hashKey(kind string, parts ...any) string {
	h, _ := HashJSON(parts)
	return kind + ":" + h
}
