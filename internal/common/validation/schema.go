package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"talent-sync/internal/common/errors"
)

// JSONSchema describes the accepted shape of a request input
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	MinItems    *int                `json:"minItems,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates input against a schema with detailed errors
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errs := []ValidationError{}

	for _, requiredField := range schema.Required {
		value, exists := input[requiredField]
		if !exists || value == nil {
			errs = append(errs, ValidationError{
				Field:   requiredField,
				Message: "is required",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		if value == nil {
			continue
		}
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: "is not allowed",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		errs = append(errs, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// Validate runs ValidateInput and folds the result into a VALIDATION_FAILED
// error whose message is the first problem, ready to show to a user.
func Validate(input map[string]interface{}, schema JSONSchema) error {
	result := ValidateInput(input, schema)
	if result.Valid {
		return nil
	}
	msgs := result.GetErrorMessages()
	return errors.NewValidationError(msgs[0], strings.Join(msgs, "; "))
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	errs := []ValidationError{}

	if typeErr := validateType(value, prop.Type); typeErr != nil {
		return append(errs, ValidationError{
			Field:   fieldName,
			Message: typeErr.Error(),
			Code:    "INVALID_TYPE",
		})
	}

	if strVal, ok := value.(string); ok {
		length := len([]rune(strings.TrimSpace(strVal)))
		if prop.MinLength != nil && length < *prop.MinLength {
			msg := fmt.Sprintf("must be at least %d characters", *prop.MinLength)
			if *prop.MinLength == 1 {
				msg = "must not be empty"
			}
			errs = append(errs, ValidationError{Field: fieldName, Message: msg, Code: "MIN_LENGTH_VIOLATION"})
		}
		if prop.MaxLength != nil && length > *prop.MaxLength {
			errs = append(errs, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be at most %d characters", *prop.MaxLength),
				Code:    "MAX_LENGTH_VIOLATION",
			})
		}
		if prop.Pattern != nil && strVal != "" {
			matched, err := regexp.MatchString(*prop.Pattern, strVal)
			if err != nil || !matched {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: "has an invalid format",
					Code:    "PATTERN_MISMATCH",
				})
			}
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, strVal) {
			errs = append(errs, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must be one of %s", strings.Join(prop.Enum, ", ")),
				Code:    "INVALID_ENUM_VALUE",
			})
		}
	}

	if items, ok := toSlice(value); ok {
		if prop.MinItems != nil && len(items) < *prop.MinItems {
			errs = append(errs, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("must contain at least %d item(s)", *prop.MinItems),
				Code:    "MIN_ITEMS_VIOLATION",
			})
		}
		if prop.Items != nil {
			for i, item := range items {
				errs = append(errs, validateField(fmt.Sprintf("%s[%d]", fieldName, i), item, *prop.Items)...)
			}
		}
	}

	if objVal, ok := value.(map[string]interface{}); ok && prop.Properties != nil {
		nested := ValidateInput(objVal, JSONSchema{
			Type:                 "object",
			Properties:           prop.Properties,
			Required:             prop.Required,
			AdditionalProperties: true,
		})
		for _, nestedErr := range nested.Errors {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.%s", fieldName, nestedErr.Field),
				Message: nestedErr.Message,
				Code:    nestedErr.Code,
			})
		}
	}

	return errs
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := toSlice(value); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	}
	return nil
}

func toSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// GetSchemaFromJSON parses a schema from its JSON form
func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

// GetErrorMessages returns "field message" strings in a stable order:
// required fields first, then the rest sorted by field name.
func (vr *ValidationResult) GetErrorMessages() []string {
	sorted := make([]ValidationError, len(vr.Errors))
	copy(sorted, vr.Errors)
	sortErrors(sorted)

	messages := make([]string, len(sorted))
	for i, err := range sorted {
		messages[i] = fmt.Sprintf("%s %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			return true
		}
	}
	return false
}

func sortErrors(errs []ValidationError) {
	rank := func(e ValidationError) int {
		if e.Code == "REQUIRED_FIELD_MISSING" {
			return 0
		}
		return 1
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if rank(errs[i]) != rank(errs[j]) {
			return rank(errs[i]) < rank(errs[j])
		}
		return errs[i].Field < errs[j].Field
	})
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

var emailRegexp = regexp.MustCompile(emailPattern)
