package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPersona is the fixed system instruction shared by every task.
const systemPersona = `You are a document verification assistant for a civil registry.
You analyze vital-event records (birth, death, marriage, divorce, adoption) and
their supporting documents. You respond ONLY with a single JSON object in the
exact shape requested. Any text outside the JSON object is an error.`

// Task-specific sampling temperatures. Fraud, classification and validation
// feed compliance decisions and need low-variance output; open-ended document
// analysis benefits from broader coverage.
const (
	temperatureAnalysis       = 0.7
	temperatureFraud          = 0.3
	temperatureClassification = 0.2
	temperatureValidation     = 0.1
)

func analyzeDocumentPrompt(text, docType string, context map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s document text extracted by OCR.\n\n", orUnknown(docType))
	fmt.Fprintf(&b, "Document text:\n%s\n", text)
	writeContext(&b, context)
	b.WriteString(`
Respond with JSON in this exact shape:
{"extracted_data":{"names":[],"dates":[],"locations":[],"numbers":[],"other":{}},
"confidence":0.0,"quality_score":0.0,"notes":"","recommendations":[]}`)
	return b.String()
}

func detectFraudPrompt(documentData, recordData, context map[string]any) string {
	var b strings.Builder
	b.WriteString("Compare the extracted document data against the registered record and look for signs of fraud or tampering.\n\n")
	fmt.Fprintf(&b, "Document data:\n%s\n\n", serialize(documentData))
	fmt.Fprintf(&b, "Registered record:\n%s\n", serialize(recordData))
	writeContext(&b, context)
	b.WriteString(`
Respond with JSON in this exact shape:
{"fraud_risk_level":"low|medium|high","fraud_indicators":[],"inconsistencies":[],
"confidence":0.0,"recommendations":[],"requires_review":false}`)
	return b.String()
}

func classifyRecordPrompt(documentData, context map[string]any) string {
	var b strings.Builder
	b.WriteString("Classify the following vital-event record data.\n\n")
	fmt.Fprintf(&b, "Record data:\n%s\n", serialize(documentData))
	writeContext(&b, context)
	b.WriteString(`
Respond with JSON in this exact shape:
{"event_type":"birth|death|marriage|divorce|adoption","categories":[],
"priority":"low|medium|high|urgent","processing_steps":[],"confidence":0.0}`)
	return b.String()
}

func validateDataPrompt(data map[string]any, dataType string, context map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validate the following %s data for completeness and accuracy.\n\n", orUnknown(dataType))
	fmt.Fprintf(&b, "Data:\n%s\n", serialize(data))
	writeContext(&b, context)
	b.WriteString(`
Respond with JSON in this exact shape:
{"is_valid":true,"validation_errors":[],"warnings":[],
"completeness_score":0.0,"accuracy_score":0.0,"recommendations":[]}`)
	return b.String()
}

func writeContext(b *strings.Builder, context map[string]any) {
	if len(context) == 0 {
		return
	}
	fmt.Fprintf(b, "\nAdditional context:\n%s\n", serialize(context))
}

func serialize(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}

func orUnknown(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
