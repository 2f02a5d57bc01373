package submissions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Shape checks run before domain validation: the body must be an object and
// every known field, when present, a string of bounded length. Required
// fields and formats are checked by the field rules below, after sanitizing.
var schemas = map[Kind]*gojsonschema.Schema{
	KindContact: mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":            stringProp(200),
			"email":           stringProp(254),
			"phone":           stringProp(40),
			"subject":         stringProp(200),
			"message":         stringProp(5000),
			"idempotency_key": stringProp(128),
		},
	}),
	KindEnrollment: mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"parent_name":      stringProp(200),
			"email":            stringProp(254),
			"phone":            stringProp(40),
			"zip":              stringProp(10),
			"child_name":       stringProp(200),
			"child_birth_date": stringProp(10),
			"program":          stringProp(40),
			"start_date":       stringProp(10),
			"schedule":         stringProp(40),
			"notes":            stringProp(5000),
			"idempotency_key":  stringProp(128),
		},
	}),
}

// Field rules run on the sanitized payload. Blank fields are dropped from
// the document first, so "required" covers whitespace-only input and format
// rules only see non-empty values.
var rules = map[Kind]*gojsonschema.Schema{
	KindContact: mustSchema(map[string]any{
		"type":     "object",
		"required": []string{"name", "email", "message"},
		"properties": map[string]any{
			"email": emailRule,
			"phone": phoneRule,
		},
	}),
	KindEnrollment: mustSchema(map[string]any{
		"type": "object",
		"required": []string{
			"parent_name", "email", "phone", "zip",
			"child_name", "child_birth_date", "program", "start_date",
		},
		"properties": map[string]any{
			"email":            emailRule,
			"phone":            phoneRule,
			"zip":              map[string]any{"type": "string", "pattern": `^\d{5}(-\d{4})?$`},
			"child_birth_date": dateRule,
			"start_date":       dateRule,
		},
	}),
}

var (
	// format "email" accepts display names and dotless domains, so a plain
	// address shape is required as well.
	emailRule = map[string]any{"type": "string", "format": "email", "pattern": `^[^\s@]+@[^\s@]+\.[^\s@]+$`}
	phoneRule = map[string]any{"type": "string", "pattern": `^(\D*\d){10}`}
	dateRule  = map[string]any{"type": "string", "format": "date"}
)

var ruleMessages = map[string]string{
	"email":            "must be a valid email address",
	"phone":            "must contain at least 10 digits",
	"zip":              "must be a 5-digit ZIP code or ZIP+4",
	"child_birth_date": "must be a valid date (YYYY-MM-DD)",
	"start_date":       "must be a valid date (YYYY-MM-DD)",
}

// checkRules validates payload against the field rules for kind.
func checkRules(kind Kind, payload any) FieldErrors {
	fe := FieldErrors{}
	schema, ok := rules[kind]
	if !ok {
		fe.Add("form", ErrUnknownKind.Error())
		return fe
	}
	doc, err := ruleDocument(payload)
	if err != nil {
		fe.Add("form", "request body could not be decoded")
		return fe
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		fe.Add("form", "request body could not be decoded")
		return fe
	}
	for _, re := range res.Errors() {
		if re.Type() == "required" {
			if prop, ok := re.Details()["property"].(string); ok {
				fe.Add(prop, "is required")
			}
			continue
		}
		field := re.Field()
		msg, ok := ruleMessages[field]
		if !ok {
			msg = re.Description()
		}
		if !fe.Has(field) {
			fe.Add(field, msg)
		}
	}
	return fe
}

func ruleDocument(payload any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			delete(doc, k)
		}
	}
	return doc, nil
}

func stringProp(maxLength int) map[string]any {
	return map[string]any{"type": "string", "maxLength": maxLength}
}

func mustSchema(doc map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("submissions: invalid schema: %v", err))
	}
	return s
}

// checkShape validates raw against the schema for kind and decodes it into
// the matching payload. Shape problems come back as FieldErrors.
func checkShape(kind Kind, raw []byte) (any, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, ErrUnknownKind
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, FieldErrors{"form": {"request body must be a JSON object"}}
	}
	if !res.Valid() {
		fe := FieldErrors{}
		for _, re := range res.Errors() {
			field := re.Field()
			if field == "(root)" || field == "" {
				if prop, ok := re.Details()["property"].(string); ok && prop != "" {
					field = prop
				} else {
					field = "form"
				}
			}
			fe.Add(field, re.Description())
		}
		return nil, fe
	}

	switch kind {
	case KindContact:
		var p ContactPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, FieldErrors{"form": {"request body could not be decoded"}}
		}
		return &p, nil
	default:
		var p EnrollmentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, FieldErrors{"form": {"request body could not be decoded"}}
		}
		return &p, nil
	}
}

// clientIdempotencyKey extracts an optional nonce from the body.
func clientIdempotencyKey(raw []byte) string {
	var probe struct {
		Key string `json:"idempotency_key"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Key
}
