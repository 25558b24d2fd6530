package config

import (
	"fmt"
	"net/url"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Metadata.Provider == "" {
		errs = append(errs, "metadata.provider: required")
	}
	if c.Metadata.URL == "" {
		errs = append(errs, "metadata.url: required")
	} else if !validURL(c.Metadata.URL) {
		errs = append(errs, fmt.Sprintf("metadata.url: not a valid URL: %q", c.Metadata.URL))
	}

	if c.Indexer.URL == "" {
		errs = append(errs, "indexer.url: required")
	} else if !validURL(c.Indexer.URL) {
		errs = append(errs, fmt.Sprintf("indexer.url: not a valid URL: %q", c.Indexer.URL))
	}
	if c.Indexer.APIKey == "" {
		errs = append(errs, "indexer.api_key: required")
	}

	if c.Engine.URL == "" {
		errs = append(errs, "engine.url: required")
	} else if !validURL(c.Engine.URL) {
		errs = append(errs, fmt.Sprintf("engine.url: not a valid URL: %q", c.Engine.URL))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("retry.max_retries: must be >= 0, got %d", c.Retry.MaxRetries))
	}

	return errs
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
