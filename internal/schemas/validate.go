// Package schemas provides JSON Schema validation for data the client persists or loads.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SnapshotSchema describes a cached search result set: a non-empty array of
// result records, each optionally carrying a numeric relevance score.
const SnapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "score": {"type": "number"}
    }
  }
}`

// ConfigSchema describes the optional JSON configuration file.
const ConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "api_url":              {"type": "string", "minLength": 1},
    "storage_backend":      {"enum": ["memory", "redis", "postgres"]},
    "storage_profile":      {"type": "string"},
    "redis_url":            {"type": "string"},
    "database_url":         {"type": "string"},
    "broadcast_channel":    {"type": "string", "minLength": 1},
    "page_size":            {"type": "integer", "minimum": 1},
    "token_cookie_max_age": {"type": "string"},
    "revalidate_spec":      {"type": "string"},
    "session_idle_ttl":     {"type": "string"},
    "http_timeout":         {"type": "string"},
    "listen_addr":          {"type": "string"},
    "log_level":            {"type": "string"},
    "log_format":           {"enum": ["text", "json"]}
  }
}`

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading the schema or the document
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator validates documents against one schema compiled up front.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schemaContent once for repeated validation.
func Compile(name, schemaContent string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return &Validator{name: name, schema: schema}, nil
}

// MustCompile is Compile for schemas known at build time.
func MustCompile(name, schemaContent string) *Validator {
	v, err := Compile(name, schemaContent)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks jsonContent. A document that is not JSON yields a
// SchemaLoadError; a document that violates the schema a ValidationError.
func (v *Validator) Validate(jsonContent string) error {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &SchemaLoadError{Path: v.name, Message: "document could not be loaded", Cause: err}
	}
	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
