package item

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Input is the request body accepted by both create and update.
type Input struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ValidationError reports a request field that failed its type or presence check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ParseInput decodes a JSON object into an Input, checking every field before
// returning. Unknown fields are ignored.
func ParseInput(body []byte) (Input, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Input{}, &ValidationError{Message: "request body is required"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return Input{}, &ValidationError{Message: "request body must be a JSON object"}
	}

	var in Input
	rawName, ok := fields["name"]
	if !ok || isNull(rawName) {
		return Input{}, &ValidationError{Field: "name", Message: "is required"}
	}
	if err := json.Unmarshal(rawName, &in.Name); err != nil {
		return Input{}, &ValidationError{Field: "name", Message: "must be a string"}
	}

	if rawDesc, ok := fields["description"]; ok && !isNull(rawDesc) {
		var desc string
		if err := json.Unmarshal(rawDesc, &desc); err != nil {
			return Input{}, &ValidationError{Field: "description", Message: "must be a string or null"}
		}
		in.Description = &desc
	}

	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Validate checks the constraints that survive decoding.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
