package catalog

import (
	"encoding/json"

	_ "embed"
)

//go:embed legacy_overrides.json
var legacyOverridesFile []byte

// DefaultLegacyOverrides returns the static table of retired courses
// still found on older transcripts.
func DefaultLegacyOverrides() map[string]LegacyOverride {
	out := map[string]LegacyOverride{}
	err := json.Unmarshal(legacyOverridesFile, &out)
	if err != nil {
		panic(err)
	}
	return out
}
