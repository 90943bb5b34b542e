package receipt

import (
	"time"

	"github.com/zombor/receipt-pipeline/internal/scanning"
)

// NewRecord maps an analyzer response onto a Record with defaults filled in.
// Only the first expense document is used. A response with no documents is not an error.
func NewRecord(id string, now time.Time, loc scanning.Location, resp *scanning.ExpenseResponse) *Record {
	record := &Record{
		ID:              id,
		Date:            now.Format(dateLayout),
		Vendor:          DefaultVendor,
		Total:           DefaultTotal,
		Items:           []LineItem{},
		SourceReference: loc.String(),
	}

	if resp == nil || len(resp.Documents) == 0 {
		return record
	}
	doc := resp.Documents[0]

	for _, field := range doc.SummaryFields {
		switch field.Type {
		case scanning.FieldTotal:
			record.Total = field.Value
		case scanning.FieldInvoiceReceiptDate:
			record.Date = field.Value
		case scanning.FieldVendorName:
			record.Vendor = field.Value
		}
	}

	for _, group := range doc.LineItemGroups {
		for _, li := range group.LineItems {
			if item, ok := mapLineItem(li); ok {
				record.Items = append(record.Items, item)
			}
		}
	}

	return record
}

// mapLineItem reports false when the line item has no ITEM field
func mapLineItem(li scanning.LineItemFields) (LineItem, bool) {
	var (
		item    LineItem
		hasName bool
	)
	for _, field := range li.Fields {
		switch field.Type {
		case scanning.FieldItem:
			item.Name = field.Value
			hasName = true
		case scanning.FieldPrice:
			item.Price = field.Value
		case scanning.FieldQuantity:
			item.Quantity = field.Value
		}
	}
	return item, hasName
}
