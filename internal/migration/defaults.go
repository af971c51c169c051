package migration

import "encoding/json"

// Literal fallbacks used when the settings blob carries no directory entries.
const (
	FallbackLocation   = "default"
	FallbackDepartment = "general"
)

// ScopeDefaults is the per-run default scope pair, computed once from the
// settings record and held for the remainder of the run.
type ScopeDefaults struct {
	Location   string
	Department string
}

// settingsBlob is the explicit shape of the settings JSON. Decoding is total:
// any missing level or malformed input falls back to the literals above.
type settingsBlob struct {
	Directories struct {
		Locations   []string `json:"locations"`
		Departments []string `json:"departments"`
	} `json:"directories"`
}

// DeriveDefaults computes the default scope pair from a raw settings JSON
// blob. The default location is the first configured location, the default
// department the first configured department; each falls back independently.
func DeriveDefaults(raw string) ScopeDefaults {
	defaults := ScopeDefaults{
		Location:   FallbackLocation,
		Department: FallbackDepartment,
	}

	var blob settingsBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return defaults
	}

	if locs := blob.Directories.Locations; len(locs) > 0 && locs[0] != "" {
		defaults.Location = locs[0]
	}
	if deps := blob.Directories.Departments; len(deps) > 0 && deps[0] != "" {
		defaults.Department = deps[0]
	}

	return defaults
}
