package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// receiptScanPrompt is the shared prompt used by all LLM providers for analyzing receipts
const receiptScanPrompt = `You are analyzing a receipt or invoice document. Carefully read all text in the image and extract the following information:

1. **Vendor Name**: The merchant, store or business name, usually the largest text at the top of the receipt.

2. **Receipt Date**: The transaction, purchase or invoice date exactly as printed on the receipt.

3. **Total**: The final total, grand total or amount due, exactly as printed, without the currency symbol.

4. **Line Items**: Every purchased item with its name, price and quantity as printed.

Return ONLY valid JSON in this exact format:
{
  "vendor_name": "Store Name",
  "invoice_receipt_date": "date as printed",
  "total": "0.00",
  "line_items": [
    {"item": "Item name", "price": "0.00", "quantity": "1"}
  ]
}

Important:
- Copy text as printed; do not reformat dates or amounts
- All values must be strings
- If you cannot find a field, use null for that field
- If an item has no name, omit the item
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// toPNG normalizes a downloaded receipt to PNG bytes for the vision models.
// S3 often reports binary/octet-stream, so the content type is sniffed when it is not useful.
func toPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := normalizeMimeType(data, contentType)

	switch {
	case mimeType == "application/pdf":
		img, err := renderFirstPage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return encodePNG(img)
	case mimeType == "image/png" && !isHEIC(data, mimeType):
		return data, nil
	default:
		img, err := decodeImage(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return encodePNG(img)
	}
}

func normalizeMimeType(data []byte, contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "binary/octet-stream" || mimeType == "application/octet-stream" {
		if isHEIC(data, "") {
			return "image/heic"
		}
		mimeType = http.DetectContentType(data)
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
	}
	return mimeType
}

// renderFirstPage renders page one of a PDF; receipts are almost always single page
func renderFirstPage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEIC(data, mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("unsupported image format %q (supported: JPEG, PNG, GIF, HEIC, HEIF, PDF): %w", mimeType, err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the MIME type and the ftyp box brand at offset 4
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
