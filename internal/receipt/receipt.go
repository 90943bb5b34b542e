package receipt

import "time"

const (
	DefaultVendor   = "Unknown"
	DefaultTotal    = "0.00"
	DefaultItemName = "Unknown Item"
	DefaultPrice    = "0.00"
	DefaultQuantity = "1"

	dateLayout = "2006-01-02"
)

// Record is a receipt extracted from one uploaded image.
// All values are kept verbatim as the analyzer detected them.
type Record struct {
	ID              string     `json:"receipt_id"`
	Date            string     `json:"date"`
	Vendor          string     `json:"vendor"`
	Total           string     `json:"total"`
	Items           []LineItem `json:"items"`
	SourceReference string     `json:"s3_path"`
}

// LineItem is a single purchased item. Price and Quantity are empty when not detected.
type LineItem struct {
	Name     string `json:"name"`
	Price    string `json:"price,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

// StoredReceipt is the persisted form of a Record, keyed by (receipt_id, date)
type StoredReceipt struct {
	ReceiptID          string       `json:"receipt_id" dynamodbav:"receipt_id"`
	Date               string       `json:"date" dynamodbav:"date"`
	Vendor             string       `json:"vendor" dynamodbav:"vendor"`
	Total              string       `json:"total" dynamodbav:"total"`
	Items              []StoredItem `json:"items" dynamodbav:"items"`
	SourceReference    string       `json:"s3_path" dynamodbav:"s3_path"`
	ProcessedTimestamp string       `json:"processed_timestamp" dynamodbav:"processed_timestamp"`
}

// StoredItem is a line item with every field present
type StoredItem struct {
	Name     string `json:"name" dynamodbav:"name"`
	Price    string `json:"price" dynamodbav:"price"`
	Quantity string `json:"quantity" dynamodbav:"quantity"`
}

// Item builds the stored form of the record, filling in missing line item fields
func (r *Record) Item(processedAt time.Time) *StoredReceipt {
	items := make([]StoredItem, 0, len(r.Items))
	for _, li := range r.Items {
		items = append(items, StoredItem{
			Name:     valueOr(li.Name, DefaultItemName),
			Price:    valueOr(li.Price, DefaultPrice),
			Quantity: valueOr(li.Quantity, DefaultQuantity),
		})
	}

	return &StoredReceipt{
		ReceiptID:          r.ID,
		Date:               r.Date,
		Vendor:             r.Vendor,
		Total:              r.Total,
		Items:              items,
		SourceReference:    r.SourceReference,
		ProcessedTimestamp: processedAt.UTC().Format(time.RFC3339Nano),
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
