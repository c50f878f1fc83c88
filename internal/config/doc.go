// Package config loads, normalizes, and validates mediaforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TENOR_API_KEY and DISCORD_TOKEN. The Config type centralizes every knob the
// resolver, transcode engine, and CLI need so the temp directory, tool
// binaries, and external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
