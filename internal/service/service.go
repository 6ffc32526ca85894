package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/ctxkey"
)

// ErrInvalidInput is returned before any request is sent when caller input fails
// validation.
var ErrInvalidInput = errors.New("invalid input")

// Gateway executes backend calls. *gateway.Client implements it.
type Gateway interface {
	Do(ctx context.Context, call gateway.Call) (*gateway.Response, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so messages match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// Registration cannot fail for a well-formed tag name.
	_ = v.RegisterValidation("subreddit_name", validateSubredditName)
	return v
}

var subredditNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// validateSubredditName accepts reddit community names without the r/ prefix.
func validateSubredditName(fl validator.FieldLevel) bool {
	return subredditNamePattern.MatchString(fl.Field().String())
}

// checkInput validates caller input.
func checkInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, formatValidationErrors(err))
	}
	return nil
}

// decode unmarshals a response payload into out and validates it. Each element of
// a slice payload is validated on its own. A payload that does not fit is reported
// like any other unreadable success body.
func decode(ctx context.Context, logger *slog.Logger, ep *gateway.Endpoint, resp *gateway.Response, out any) error {
	invalid := func(reason string) error {
		ctxkey.Logger(ctx, logger).Warn("response failed validation",
			"endpoint", ep.Name,
			"reason", reason,
		)
		return &gateway.RequestError{
			Status:  resp.Status,
			Message: gateway.InvalidResponseMessage,
			Body:    resp.Data,
		}
	}

	if err := resp.Decode(out); err != nil {
		return invalid(err.Error())
	}

	rv := reflect.ValueOf(out)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		if err := validate.Struct(rv.Interface()); err != nil {
			return invalid(formatValidationErrors(err))
		}
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if err := validate.Struct(rv.Index(i).Interface()); err != nil {
				return invalid(fmt.Sprintf("item %d: %s", i, formatValidationErrors(err)))
			}
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleValidationError(e))
	}
	return strings.Join(messages, "; ")
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "subreddit_name":
		return fmt.Sprintf("%s must be 2-21 letters, digits or underscores", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// checkID rejects blank identifiers before they reach a URL path.
func checkID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

func projectParams(projectID string) map[string]string {
	return map[string]string{gateway.ParamProjectID: projectID}
}
