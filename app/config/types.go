package config

// SourceConfig represents a complete source configuration
type SourceConfig struct {
	Source   SourceInfo     `yaml:"source"`
	Settings SourceSettings `yaml:"settings"`
}

// SourceInfo identifies the upstream catalog
type SourceInfo struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`    // curseforge, modrinth or showcase
	URL    string `yaml:"url"`     // API base or feed URL override
	APIKey string `yaml:"api_key"` // supports ${ENV_VAR} expansion
}

// SourceSettings contains per-source search behavior
type SourceSettings struct {
	Enabled  *bool `yaml:"enabled"`  // default true
	Optional *bool `yaml:"optional"` // default false

	Timeout      int `yaml:"timeout"`       // seconds
	RateInterval int `yaml:"rate_interval"` // seconds between call starts
	CacheTTL     int `yaml:"cache_ttl"`     // seconds
	MaxResults   int `yaml:"max_results"`

	FailureThreshold  int `yaml:"failure_threshold"`
	ResetTimeout      int `yaml:"reset_timeout"` // seconds
	HalfOpenMaxCalls  int `yaml:"half_open_max_calls"`
	HalfOpenSuccesses int `yaml:"half_open_successes"`

	// TreatEmptyAsFailure counts empty results against the circuit
	// breaker, since silent blocking usually shows up as empty pages.
	// Defaults to true.
	TreatEmptyAsFailure *bool `yaml:"treat_empty_as_failure"`
}
