package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	// Report json names so messages match what the caller sent.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}

// DecodeError reports a request body that is not a single JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid request body: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode reads exactly one JSON value from r into data. Unknown fields and
// mistyped fields are reported as *model.ValidationError, anything else that
// keeps the body from decoding as *DecodeError.
func Decode[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		return decodeFailure(err)
	}
	if decoder.More() {
		return &DecodeError{Err: errors.New("multiple JSON values")}
	}

	return nil
}

// Validate decodes r into data and then validates the struct tags on data.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	if err := Decode(r, data); err != nil {
		return err
	}

	return ValidateStruct(data)
}

// ValidateStruct validates the struct tags on data.
func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return toValidationError("", err)
	}

	return nil
}

// ValidateVar validates a single value against tag, naming it field in the
// resulting error.
func ValidateVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return toValidationError(field, err)
	}

	return nil
}

// Title trims raw and checks it is 1..MaxTitleLength characters long.
func Title(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if err := ValidateVar("title", title, fmt.Sprintf("required,max=%d", model.MaxTitleLength)); err != nil {
		return "", err
	}

	return title, nil
}

// DecodePatch parses a partial update body into a typed patch. Only title and
// completed are accepted, each with its JSON type; null is rejected rather
// than treated as absent.
func DecodePatch(r io.Reader) (model.TaskPatch, error) {
	var fields map[string]json.RawMessage
	if err := Decode(r, &fields); err != nil {
		return model.TaskPatch{}, err
	}
	if fields == nil {
		return model.TaskPatch{}, &DecodeError{Err: errors.New("body must be a JSON object")}
	}

	var patch model.TaskPatch
	for name, raw := range fields {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return model.TaskPatch{}, model.NewValidationError(name, "must not be null")
		}

		switch name {
		case "title":
			var title string
			if err := json.Unmarshal(raw, &title); err != nil {
				return model.TaskPatch{}, model.NewValidationError(name, "must be a string")
			}
			patch.Title = &title
		case "completed":
			var completed bool
			if err := json.Unmarshal(raw, &completed); err != nil {
				return model.TaskPatch{}, model.NewValidationError(name, "must be a boolean")
			}
			patch.Completed = &completed
		default:
			return model.TaskPatch{}, model.NewValidationError(name, "is not a known field")
		}
	}

	return NormalizePatch(patch)
}

// NormalizePatch rejects an empty patch and trims and checks a supplied title.
func NormalizePatch(patch model.TaskPatch) (model.TaskPatch, error) {
	if patch.Empty() {
		return model.TaskPatch{}, model.NewValidationError("", "provide at least one field: title or completed")
	}

	if patch.Title != nil {
		title, err := Title(*patch.Title)
		if err != nil {
			return model.TaskPatch{}, err
		}
		patch.Title = &title
	}

	return patch, nil
}

func decodeFailure(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return &DecodeError{Err: err}
		}
		return model.NewValidationError(field, "must be of type "+jsonTypeName(typeErr.Type))
	}

	// encoding/json has no typed error for unknown fields.
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return model.NewValidationError(strings.Trim(name, `"`), "is not a known field")
	}

	return &DecodeError{Err: err}
}

func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.String()
	}
}
