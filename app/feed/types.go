package feed

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled          bool `yaml:"enabled"`
	RefreshInterval  int  `yaml:"refresh_interval"` // seconds
	MaxEpisodes      int  `yaml:"max_episodes"`
	Timeout          int  `yaml:"timeout"` // seconds
	ExtractShownotes bool `yaml:"extract_shownotes"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
