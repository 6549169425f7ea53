package config

// SearchPreset holds one saved search from the configuration file, so a
// recurring search can be run as `clfetch search --preset <name>` instead of
// repeating the same flags every time.
type SearchPreset struct {
	// Site is the Craigslist site token, e.g. "sfbay".
	Site string `yaml:"site,omitempty"`

	// Area optionally narrows the site to a sub-area, e.g. "eby".
	Area string `yaml:"area,omitempty"`

	// Category is the category code to search, e.g. "bia".
	Category string `yaml:"category,omitempty"`

	// Query is the free-text search query.
	Query string `yaml:"query,omitempty"`

	// Params are extra search filters merged into every page request,
	// e.g. hasPic: "1" or min_price: "100".
	Params map[string]string `yaml:"params,omitempty"`

	// MaxPages overrides the global page cap for this preset.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// File represents the structure of the .clfetch configuration file.
type File struct {
	// Searches maps preset names to saved searches.
	Searches map[string]SearchPreset `yaml:"searches,omitempty"`

	// Defaults contains preset values applied to every search unless
	// overridden by the named preset.
	Defaults SearchPreset `yaml:"defaults,omitempty"`
}

// GetPreset returns the named search preset merged over the file's defaults.
// The boolean reports whether the name exists; the defaults are returned
// either way so callers can still fall back to them.
func (cf *File) GetPreset(name string) (SearchPreset, bool) {
	// Start with defaults
	result := cf.Defaults

	preset, ok := cf.Searches[name]
	if !ok {
		return result, false
	}

	// Override with preset-specific values if present
	if preset.Site != "" {
		result.Site = preset.Site
	}
	if preset.Area != "" {
		result.Area = preset.Area
	}
	if preset.Category != "" {
		result.Category = preset.Category
	}
	if preset.Query != "" {
		result.Query = preset.Query
	}
	if len(preset.Params) > 0 {
		// Merge into a fresh map so the shared defaults stay untouched.
		merged := make(map[string]string, len(result.Params)+len(preset.Params))
		for k, v := range result.Params {
			merged[k] = v
		}
		for k, v := range preset.Params {
			merged[k] = v
		}
		result.Params = merged
	}
	if preset.MaxPages != 0 {
		result.MaxPages = preset.MaxPages
	}

	return result, true
}
