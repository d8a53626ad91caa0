// Package config loads, normalizes, and validates lyricsmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LYRICSMITH_API_KEY. The Config type centralizes every knob the pipeline, CLI,
// and HTTP front end need, so output/work directories, provider order, and
// LLM credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
