// Package config loads, normalizes, and validates saysubs configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from the default location or an explicit
// path. The Config type centralizes every knob the CLI and pipeline need:
// external tool binaries, audio format, worker limits, and logging output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
