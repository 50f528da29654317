package config

import "fmt"

type ConfigurationError struct {
	Env    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Env, e.Reason)
}

func RequireNonEmpty(value, envName string) error {
	if value == "" {
		return &ConfigurationError{Env: envName, Reason: "missing required env"}
	}
	return nil
}

func RequirePositive(value int, envName string) error {
	if value <= 0 {
		return &ConfigurationError{Env: envName, Reason: "must be greater than zero"}
	}
	return nil
}

func RequireOneOf(value, envName string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ConfigurationError{Env: envName, Reason: fmt.Sprintf("unsupported value %q, want one of %v", value, allowed)}
}
