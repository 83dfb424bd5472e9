package recognition

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"civis/internal/domain"
)

// FieldType declares how a matched field value is coerced.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
)

// FieldSpec describes one named field in an extraction template. A field is
// located either by Pattern (regex over the full text) or by Region; the
// region path is a known gap with no spatial extraction behind it yet, so
// region-only fields always come back nil.
type FieldSpec struct {
	Pattern string    `json:"pattern,omitempty"`
	Type    FieldType `json:"type,omitempty"`
	Region  *Region   `json:"region,omitempty"`
}

// Template maps field names to their extraction specs.
type Template map[string]FieldSpec

// FormFields pairs the per-field values with the underlying full-text
// extraction they were derived from.
type FormFields struct {
	Fields      map[string]any           `json:"fields"`
	Recognition domain.RecognitionResult `json:"recognition"`
}

// dateLayouts are tried in order when coercing date fields.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// ExtractFormFields runs a full-text extraction and then resolves each
// template field against it. A field whose pattern does not match, or whose
// value cannot be coerced, yields nil rather than failing the call.
func (e *Engine) ExtractFormFields(ctx context.Context, path string, tmpl Template, opts ExtractOptions) (FormFields, error) {
	rec := e.ExtractText(ctx, path, opts)
	out := FormFields{Fields: make(map[string]any, len(tmpl)), Recognition: rec}
	if !rec.Success {
		return out, fmt.Errorf("form field extraction: %s", rec.Err)
	}

	for name, spec := range tmpl {
		if spec.Pattern == "" {
			// Region-based lookup is not implemented.
			out.Fields[name] = nil
			continue
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			e.log.Printf("template field %q: bad pattern: %v", name, err)
			out.Fields[name] = nil
			continue
		}
		out.Fields[name] = coerceField(matchField(re, rec.Text), spec.Type)
	}
	return out, nil
}

// matchField returns the first capture group when the pattern declares one,
// otherwise the whole match. No match yields the empty string.
func matchField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

func coerceField(value string, t FieldType) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	switch t {
	case FieldNumber:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil
		}
		return f
	case FieldInteger:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		return i
	case FieldDate:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, value); err == nil {
				return ts
			}
		}
		return nil
	case FieldBoolean:
		lower := strings.ToLower(value)
		return lower == "true" || lower == "yes"
	default:
		return value
	}
}
