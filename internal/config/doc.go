// Package config loads, normalizes, and validates dailies configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as DAILIES_HOST_URL and DAILIES_LUT. The Config
// type centralizes every knob the pipeline and CLI need: where the host bridge
// lives, how the dated folder tree is named, which LUT is applied, and the
// literal render settings handed to the host.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
