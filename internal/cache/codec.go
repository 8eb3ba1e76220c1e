// Package cache implements the versioned encoding for cache payloads.
//
// Every aggregate stored in the cache is prefixed with a schema tag so that
// corrupted or cross-version payloads fail decoding deterministically instead
// of being misread.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hireloop-ai/hireloop/internal/models"
)

// codecTag identifies the current payload schema version.
const codecTag = "HLC1"

const codecSep = "|"

// Encode serializes v with the current schema tag.
func Encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache encode failed: %w", err)
	}
	return codecTag + codecSep + string(data), nil
}

// Decode deserializes a tagged payload into v. Payloads with a missing or
// unknown tag, or with malformed content, return ErrCorruptPayload.
func Decode(payload string, v interface{}) error {
	tag, body, ok := strings.Cut(payload, codecSep)
	if !ok || tag != codecTag {
		return fmt.Errorf("%w: bad schema tag %q", models.ErrCorruptPayload, tag)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCorruptPayload, err)
	}
	return nil
}
