package config

import "time"

// IsEnabled reports whether the source takes part in searches.
func (s *SourceSettings) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// IsOptional reports whether the source only runs when callers opt in.
func (s *SourceSettings) IsOptional() bool {
	return s.Optional != nil && *s.Optional
}

// EmptyAsFailure reports whether empty results count against the breaker.
func (s *SourceSettings) EmptyAsFailure() bool {
	return s.TreatEmptyAsFailure == nil || *s.TreatEmptyAsFailure
}

// GetTimeout returns the per-source search timeout as time.Duration
func (s *SourceSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 12 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// GetRateInterval returns the minimum interval between call starts
func (s *SourceSettings) GetRateInterval() time.Duration {
	if s.RateInterval <= 0 {
		return time.Second
	}
	return time.Duration(s.RateInterval) * time.Second
}

// GetCacheTTL returns the result cache lifetime as time.Duration
func (s *SourceSettings) GetCacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return time.Hour
	}
	return time.Duration(s.CacheTTL) * time.Second
}

// GetResetTimeout returns the breaker cooldown as time.Duration
func (s *SourceSettings) GetResetTimeout() time.Duration {
	if s.ResetTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.ResetTimeout) * time.Second
}
