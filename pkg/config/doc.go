// Package config loads, validates, and writes mdc configuration files.
//
// Configuration is YAML with apiVersion/kind metadata, validated against
// an embedded JSON schema before being decoded.
package config
