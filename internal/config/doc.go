// Package config manages tool settings stored at ~/.ferrite/config.yaml.
// Built-in defaults are installed underneath the file's values: every key
// absent from the file is filled from the defaults, recursively for nested
// groups, and no user-supplied key is ever overwritten. The file is validated
// against an embedded JSON schema before use.
package config
