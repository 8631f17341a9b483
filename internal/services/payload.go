package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/datamon/datamon-api/pkg/errors"
)

// Decode failures carry which decoder rejected the body so the handler can
// name the right format in its response.
var (
	ErrMalformedJSON = fmt.Errorf("body: malformed JSON: %w", apperrors.ErrInvalidInput)
	ErrMalformedForm = fmt.Errorf("body: malformed form encoding: %w", apperrors.ErrInvalidInput)
)

// PayloadKind tags the decoded shape of a pushed body
type PayloadKind int

const (
	// PayloadObject merges key-by-key into existing content
	PayloadObject PayloadKind = iota
	// PayloadArray replaces existing content wholesale
	PayloadArray
	// PayloadPrimitive is ignored by the merge step
	PayloadPrimitive
)

// Payload is the uniform result of decoding a pushed body, whatever the
// declared content type was.
type Payload struct {
	Kind   PayloadKind
	Object map[string]interface{}
	Array  []interface{}
}

// DecodePayload turns a request body into a Payload according to the
// declared content type:
//   - application/json: parsed as JSON; a body that does not parse is a
//     client error
//   - text/plain: tried as JSON first, otherwise wrapped as {"value": text}
//   - anything else: form-encoded key/value pairs
func DecodePayload(contentType string, body []byte) (Payload, error) {
	switch {
	case strings.Contains(contentType, "application/json"):
		return decodeJSON(body)
	case strings.Contains(contentType, "text/plain"):
		return decodeText(body), nil
	default:
		return decodeForm(body)
	}
}

func decodeJSON(body []byte) (Payload, error) {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return Payload{}, ErrMalformedJSON
	}
	return classify(value), nil
}

func decodeText(body []byte) Payload {
	var value interface{}
	if err := json.Unmarshal(body, &value); err == nil {
		return classify(value)
	}
	// Not valid JSON: wrap the raw text
	return Payload{
		Kind:   PayloadObject,
		Object: map[string]interface{}{"value": string(body)},
	}
}

func decodeForm(body []byte) (Payload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return Payload{}, ErrMalformedForm
	}

	object := make(map[string]interface{}, len(values))
	for key, value := range values {
		if len(value) > 0 {
			object[key] = value[0]
		}
	}
	return Payload{Kind: PayloadObject, Object: object}, nil
}

func classify(value interface{}) Payload {
	switch typed := value.(type) {
	case map[string]interface{}:
		return Payload{Kind: PayloadObject, Object: typed}
	case []interface{}:
		return Payload{Kind: PayloadArray, Array: typed}
	default:
		return Payload{Kind: PayloadPrimitive}
	}
}
