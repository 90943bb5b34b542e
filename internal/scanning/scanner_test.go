package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseFieldType", func() {
	DescribeTable("mapping raw tags",
		func(tag string, expected FieldType) {
			Expect(ParseFieldType(tag)).To(Equal(expected))
		},
		Entry("TOTAL", "TOTAL", FieldTotal),
		Entry("INVOICE_RECEIPT_DATE", "INVOICE_RECEIPT_DATE", FieldInvoiceReceiptDate),
		Entry("VENDOR_NAME", "VENDOR_NAME", FieldVendorName),
		Entry("ITEM", "ITEM", FieldItem),
		Entry("PRICE", "PRICE", FieldPrice),
		Entry("QUANTITY", "QUANTITY", FieldQuantity),
		Entry("unknown tag", "SUBTOTAL", FieldUnrecognized),
		Entry("lower case", "total", FieldUnrecognized),
		Entry("empty", "", FieldUnrecognized),
	)

	It("should round trip recognized types through String", func() {
		Expect(FieldVendorName.String()).To(Equal("VENDOR_NAME"))
		Expect(FieldUnrecognized.String()).To(Equal("UNRECOGNIZED"))
	})
})

var _ = Describe("Location", func() {
	It("should render as an s3 URI", func() {
		loc := Location{Bucket: "receipts", Key: "2024/my receipt.jpg"}
		Expect(loc.String()).To(Equal("s3://receipts/2024/my receipt.jpg"))
	})
})
