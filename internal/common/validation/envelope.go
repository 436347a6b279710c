package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"talent-sync/internal/common/errors"
)

// The API wraps every response as {data, message?}. data is deliberately
// unconstrained; collection shape is checked later by the caller.
const envelopeSchemaJSON = `{
	"type": "object",
	"properties": {
		"data": {},
		"message": {"type": ["string", "null"]}
	}
}`

var envelopeSchema = mustSchema(envelopeSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return schema
}

// ValidateEnvelope checks that body is a JSON object in envelope shape.
func ValidateEnvelope(body []byte) error {
	result, err := envelopeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.NewDecodeError("response envelope", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		stdErr := errors.NewShapeMismatchError("envelope", "invalid document")
		stdErr.Details = strings.Join(errs, "; ")
		return stdErr
	}

	return nil
}
