package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// llmExpense is the JSON shape the LLM backends are prompted to return
type llmExpense struct {
	VendorName         textValue     `json:"vendor_name"`
	InvoiceReceiptDate textValue     `json:"invoice_receipt_date"`
	Total              textValue     `json:"total"`
	LineItems          []llmLineItem `json:"line_items"`
}

type llmLineItem struct {
	Item     textValue `json:"item"`
	Price    textValue `json:"price"`
	Quantity textValue `json:"quantity"`
}

// textValue accepts a JSON string, number or null and keeps its text verbatim
type textValue string

func (v *textValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = textValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*v = textValue(n.String())
	return nil
}

// parseExpenseJSON parses the JSON response from an LLM backend
func parseExpenseJSON(text string) (*ExpenseResponse, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var data llmExpense
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	return data.toResponse(), nil
}

// toResponse converts the flat LLM output into a single expense document.
// Empty values were not detected and produce no field.
func (e llmExpense) toResponse() *ExpenseResponse {
	doc := ExpenseDocument{}
	doc.SummaryFields = appendField(doc.SummaryFields, "VENDOR_NAME", e.VendorName)
	doc.SummaryFields = appendField(doc.SummaryFields, "INVOICE_RECEIPT_DATE", e.InvoiceReceiptDate)
	doc.SummaryFields = appendField(doc.SummaryFields, "TOTAL", e.Total)

	if len(e.LineItems) > 0 {
		group := LineItemGroup{}
		for _, li := range e.LineItems {
			var fields []ExpenseField
			fields = appendField(fields, "ITEM", li.Item)
			fields = appendField(fields, "PRICE", li.Price)
			fields = appendField(fields, "QUANTITY", li.Quantity)
			group.LineItems = append(group.LineItems, LineItemFields{Fields: fields})
		}
		doc.LineItemGroups = append(doc.LineItemGroups, group)
	}

	return &ExpenseResponse{Documents: []ExpenseDocument{doc}}
}

func appendField(fields []ExpenseField, tag string, v textValue) []ExpenseField {
	if v == "" {
		return fields
	}
	return append(fields, NewExpenseField(tag, string(v)))
}
