// Package validation checks the structure of inbound query bodies.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidRequest marks bodies that are not valid JSON or do not match the schema.
var ErrInvalidRequest = errors.New("invalid request")

// requestSchema only requires a top-level object. Field values are left to
// the dispatcher: a missing token must win over a badly typed field, and
// any action_type value is answered with an envelope.
const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object"
}`

// Validator validates and decodes inbound bodies.
type Validator struct {
	schema *gojsonschema.Schema
}

// New compiles the request schema.
func New() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Decode validates body against the schema and decodes it.
func (v *Validator) Decode(body []byte) (types.Request, error) {
	if len(body) == 0 {
		return types.Request{}, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if !json.Valid(body) {
		return types.Request{}, fmt.Errorf("%w: body is not valid JSON", ErrInvalidRequest)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return types.Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return types.Request{}, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	var req types.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return types.Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}
