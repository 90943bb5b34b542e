package scanning

import (
	"context"
	"fmt"
)

// Location identifies a stored object by bucket and key
type Location struct {
	Bucket string
	Key    string
}

// String renders the location as an s3:// URI
func (l Location) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// FieldType is a recognized expense field tag
type FieldType int

const (
	FieldUnrecognized FieldType = iota
	FieldTotal
	FieldInvoiceReceiptDate
	FieldVendorName
	FieldItem
	FieldPrice
	FieldQuantity
)

var fieldTags = map[string]FieldType{
	"TOTAL":                FieldTotal,
	"INVOICE_RECEIPT_DATE": FieldInvoiceReceiptDate,
	"VENDOR_NAME":          FieldVendorName,
	"ITEM":                 FieldItem,
	"PRICE":                FieldPrice,
	"QUANTITY":             FieldQuantity,
}

// ParseFieldType maps a raw tag to its FieldType. Unknown tags map to FieldUnrecognized.
func ParseFieldType(tag string) FieldType {
	if t, ok := fieldTags[tag]; ok {
		return t
	}
	return FieldUnrecognized
}

// String returns the tag for a recognized field type
func (t FieldType) String() string {
	for tag, ft := range fieldTags {
		if ft == t {
			return tag
		}
	}
	return "UNRECOGNIZED"
}

// ExpenseField is one detected field. Tag keeps the raw tag as reported by the analyzer.
type ExpenseField struct {
	Type  FieldType
	Tag   string
	Value string
}

// NewExpenseField builds a field from a raw tag and detected text
func NewExpenseField(tag, value string) ExpenseField {
	return ExpenseField{Type: ParseFieldType(tag), Tag: tag, Value: value}
}

// LineItemFields holds the fields detected for a single line item
type LineItemFields struct {
	Fields []ExpenseField
}

// LineItemGroup is a group of line items, such as one table on a receipt
type LineItemGroup struct {
	LineItems []LineItemFields
}

// ExpenseDocument is one analyzed expense document
type ExpenseDocument struct {
	SummaryFields  []ExpenseField
	LineItemGroups []LineItemGroup
}

// ExpenseResponse contains everything an analyzer extracted from a receipt
type ExpenseResponse struct {
	Documents []ExpenseDocument
}

// Analyzer defines the interface for expense analysis backends
type Analyzer interface {
	// AnalyzeExpense analyzes the receipt stored at loc
	AnalyzeExpense(ctx context.Context, loc Location) (*ExpenseResponse, error)
	// Close closes the analyzer and releases resources
	Close() error
}

// ObjectReader downloads stored objects for analyzers that need the raw bytes
type ObjectReader interface {
	Get(ctx context.Context, loc Location) ([]byte, string, error)
}
