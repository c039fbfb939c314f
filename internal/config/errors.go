package config

import "errors"

var (
	// ErrRulesNotFound is returned when an explicitly named rules file does not exist.
	ErrRulesNotFound = errors.New("rules file not found")

	// ErrRulesMalformed is returned when a rules file is not valid YAML for the rules schema.
	ErrRulesMalformed = errors.New("rules file malformed")
)
