package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers the config-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration accepts positive time.ParseDuration strings.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateRecheckInterval(); err != nil {
		return err
	}
	return nil
}

// validateRecheckInterval rejects a re-check period shorter than the request
// timeout: a verification would still be in flight when the next one fires.
func (c *Config) validateRecheckInterval() error {
	if c.RecheckInterval() < c.APITimeout() {
		return fmt.Errorf("session.recheck_interval (%s) must not be shorter than api.timeout (%s)",
			c.Session.RecheckInterval, c.API.Timeout)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration (e.g. \"30s\", \"5m\")", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
