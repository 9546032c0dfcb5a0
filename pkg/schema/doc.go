// Package schema generates and validates the JSON schema for mdc
// configuration files.
package schema
