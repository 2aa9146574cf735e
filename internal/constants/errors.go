package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured = errors.New("no API token configured, set " + EnvAPIToken + " or run 'pipedrive config set-token'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrTokenViaPrompt    = errors.New("refusing to read token from argument, use the interactive prompt or " + EnvAPIToken)
)

// CLI validation errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format (expected table, json or yaml)")
	ErrIDRequired          = errors.New("an id argument is required")
	ErrNoFieldsToSet       = errors.New("at least one --field key=value is required")
	ErrInvalidFieldArg     = errors.New("invalid --field argument, expected key=value")
)
