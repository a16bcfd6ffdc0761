// Package parse converts free-text model replies into validated
// structured results. Every function here is total: malformed input
// degrades to safe defaults, it never produces an error.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

var (
	one = decimal.NewFromInt(1)

	// Substitution defaults for untrusted numeric fields. A missing
	// field means the model skipped it (neutral default); a present but
	// unusable value means the reply itself is suspect (downgraded
	// default). Out-of-range values are substituted, not clamped.
	confidenceField = numericField{
		Missing:    decimal.RequireFromString("0.5"),
		Invalid:    decimal.RequireFromString("0.3"),
		OutOfRange: decimal.RequireFromString("0.5"),
	}
	complexityField = numericField{
		Missing:    decimal.RequireFromString("0.5"),
		Invalid:    decimal.RequireFromString("0.5"),
		OutOfRange: decimal.RequireFromString("0.5"),
	}

	parseFailConfidence = decimal.RequireFromString("0.3")
	parseFailComplexity = decimal.RequireFromString("0.5")
)

// numericField is the parse-or-default policy for one externally
// sourced numeric field.
type numericField struct {
	Missing    decimal.Decimal
	Invalid    decimal.Decimal
	OutOfRange decimal.Decimal
}

func (f numericField) parse(v any, present bool) decimal.Decimal {
	if !present || v == nil {
		return f.Missing
	}
	var d decimal.Decimal
	switch n := v.(type) {
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return f.Invalid
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return f.Invalid
		}
		d = parsed
	default:
		return f.Invalid
	}
	if d.IsNegative() || d.GreaterThan(one) {
		return f.OutOfRange
	}
	return d
}

// ClassificationReply is the parsed, defaulted form of a classifier
// response, before the escalation controller attaches tier metadata.
type ClassificationReply struct {
	DocumentType    domain.DocumentType
	Confidence      decimal.Decimal
	ComplexityScore decimal.Decimal
	RawResponse     string
}

// Classification parses a classifier reply. On any decode failure it
// returns {OTHER, 0.3, 0.5} with the raw text preserved for audit.
func Classification(raw string) ClassificationReply {
	obj, ok := decodeObject(raw)
	if !ok {
		return ClassificationReply{
			DocumentType:    domain.TypeOther,
			Confidence:      parseFailConfidence,
			ComplexityScore: parseFailComplexity,
			RawResponse:     raw,
		}
	}

	docType := domain.TypeOther
	if s, found := obj["document_type"].(string); found && domain.KnownDocumentType(s) {
		docType = domain.DocumentType(s)
	}

	conf, confPresent := obj["confidence"]
	cplx, cplxPresent := obj["complexity_score"]

	return ClassificationReply{
		DocumentType:    docType,
		Confidence:      confidenceField.parse(conf, confPresent),
		ComplexityScore: complexityField.parse(cplx, cplxPresent),
		RawResponse:     raw,
	}
}

// Extraction parses an extraction reply. On decode failure it returns
// zero fields and confidence 0.3 so the validator flags the attempt.
func Extraction(raw string) domain.ExtractionResult {
	obj, ok := decodeObject(raw)
	if !ok {
		return domain.ExtractionResult{
			Fields:      map[string]*string{},
			Confidence:  parseFailConfidence,
			Notes:       "response was not valid JSON",
			RawResponse: raw,
		}
	}

	conf, confPresent := obj["confidence"]
	notes, _ := obj["extraction_notes"].(string)

	return domain.ExtractionResult{
		Fields:      extractFields(obj["extracted_fields"]),
		Confidence:  confidenceField.parse(conf, confPresent),
		Notes:       notes,
		RawResponse: raw,
	}
}

func extractFields(v any) map[string]*string {
	fields := map[string]*string{}
	raw, ok := v.(map[string]any)
	if !ok {
		return fields
	}
	for name, value := range raw {
		fields[name] = fieldValue(value)
	}
	return fields
}

// fieldValue flattens one extracted value to a nullable string. The
// model returns strings or null for scalar fields and arrays for list
// fields like required_documents.
func fieldValue(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case json.Number:
		s := t.String()
		return &s
	case bool:
		s := "false"
		if t {
			s = "true"
		}
		return &s
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if p := fieldValue(item); p != nil {
				parts = append(parts, *p)
			}
		}
		joined := strings.Join(parts, "; ")
		return &joined
	default:
		return nil
	}
}

// decodeObject pulls the outermost JSON object out of raw and decodes
// it with json.Number preserved, so decimal conversion stays exact.
func decodeObject(raw string) (map[string]any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}
