package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"resumecraft/internal/errors"

	"github.com/xeipuuv/gojsonschema"
)

// analysisSchema describes the envelope of an analysis response. The items
// themselves are free-form.
const analysisSchema = `{
  "type": "object",
  "properties": {
    "analysis_id": {"type": ["string", "integer", "null"]},
    "analysis": {"type": ["array", "object", "null"]},
    "error": {}
  },
  "anyOf": [
    {"required": ["analysis_id"]},
    {"required": ["error"]},
    {"required": ["analysis"]}
  ]
}`

var compiledAnalysisSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchema))
})

// validateEnvelope checks body against analysisSchema.
func validateEnvelope(body []byte) error {
	schema, err := compiledAnalysisSchema()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "invalid analysis schema", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return decodeError("analyze", err)
	}
	if res.Valid() {
		return nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, e.String())
	}
	return decodeError("analyze", fmt.Errorf("schema validation failed: %s", strings.Join(violations, "; "))).
		WithContext("violations", violations)
}

// parseAnalysis validates and decodes an analysis response. A top-level
// error or any item carrying an error rejects the analysis.
func parseAnalysis(body []byte) (*Analysis, error) {
	if err := validateEnvelope(body); err != nil {
		return nil, err
	}

	var env struct {
		ID       ID              `json:"analysis_id"`
		Analysis json.RawMessage `json:"analysis"`
		Error    any             `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, decodeError("analyze", err)
	}

	items, err := analysisItems(env.Analysis)
	if err != nil {
		return nil, decodeError("analyze", err)
	}

	if msg := errorText(env.Error); msg != "" {
		return nil, rejected([]string{msg})
	}
	var reasons []string
	for _, item := range items {
		if msg := errorText(item["error"]); msg != "" {
			reasons = append(reasons, msg)
		}
	}
	if len(reasons) > 0 {
		return nil, rejected(reasons)
	}

	if env.ID == "" {
		return nil, errors.NewPayloadError(ErrDecode.Code, "Unexpected response from server. Please try again.", nil).
			WithContext("operation", "analyze")
	}
	return &Analysis{ID: env.ID, Items: items, Raw: json.RawMessage(body)}, nil
}

// analysisItems accepts either a list of items or a single item.
func analysisItems(raw json.RawMessage) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []map[string]any{}, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var one map[string]any
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []map[string]any{one}, nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		} else {
			items = append(items, map[string]any{"value": v})
		}
	}
	return items, nil
}

// errorText turns a truthy error value into a message.
func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(e)
	case bool:
		if e {
			return "analysis failed"
		}
		return ""
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(b)
	}
}
