package engine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// fingerprintSpace namespaces report fingerprints so they never collide
// with other name-based UUIDs.
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cleared.dev/forecast/report"))

// Fingerprint returns a name-based (version 5) UUID over the JSON encoding
// of kind and inputs. The same inputs always give the same fingerprint, so
// callers can use it as a cache key.
func Fingerprint(kind string, inputs any) (string, error) {
	data, err := json.Marshal(struct {
		Kind   string `json:"kind"`
		Inputs any    `json:"inputs"`
	}{kind, inputs})
	if err != nil {
		return "", fmt.Errorf("encoding %s inputs: %w", kind, err)
	}
	return uuid.NewSHA1(fingerprintSpace, data).String(), nil
}
