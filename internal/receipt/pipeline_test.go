package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const uploadEvent = `{
  "Records": [
    {
      "eventVersion": "2.1",
      "eventSource": "aws:s3",
      "awsRegion": "us-east-1",
      "eventName": "ObjectCreated:Put",
      "s3": {
        "s3SchemaVersion": "1.0",
        "bucket": {"name": "receipts", "arn": "arn:aws:s3:::receipts"},
        "object": {"key": "uploads/cafe+x%2B1.png", "size": 12}
      }
    }
  ]
}`

var _ = Describe("Pipeline", func() {
	var (
		tempDir  string
		db       *BoltDB
		store    *LocalStorage
		analyzer *mockAnalyzer
		mailer   *mockMailer
		service  *Service
		event    events.S3Event
		response Response
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(filepath.Join(tempDir, "objects"))
		Expect(err).NotTo(HaveOccurred())

		objectPath := filepath.Join(tempDir, "objects", "receipts", "uploads", "cafe x+1.png")
		Expect(os.MkdirAll(filepath.Dir(objectPath), 0755)).To(Succeed())
		Expect(os.WriteFile(objectPath, []byte("fake image"), 0644)).To(Succeed())

		analyzer = newMockAnalyzer()
		mailer = &mockMailer{}
		notifier := NewNotifier(mailer, "sender@example.com", []string{"me@example.com"})
		service = NewService(db, analyzer, store, notifier)

		Expect(json.Unmarshal([]byte(uploadEvent), &event)).To(Succeed())
	})

	AfterEach(func() {
		db.Close()
	})

	JustBeforeEach(func() {
		response = service.HandleEvent(context.Background(), event)
	})

	When("the uploaded object exists", func() {
		It("should report success", func() {
			Expect(response.StatusCode).To(Equal(http.StatusOK))
		})

		It("should persist the receipt", func() {
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(1))

			saved, err := db.GetReceipt(receipts[0].ReceiptID, "2024-03-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Vendor).To(Equal("Cafe X"))
			Expect(saved.Total).To(Equal("12.50"))
			Expect(saved.Items).To(Equal([]StoredItem{{Name: "Coffee", Price: "4.00", Quantity: "2"}}))
			Expect(saved.SourceReference).To(Equal("s3://receipts/uploads/cafe x+1.png"))
		})

		It("should notify about the stored receipt", func() {
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(mailer.sent).To(HaveLen(1))
			Expect(mailer.sent[0].HTML).To(ContainSubstring(receipts[0].ReceiptID))
		})
	})

	When("the mailer is down", func() {
		BeforeEach(func() {
			mailer.sendErr = errors.New("connection refused")
		})

		It("should report success and keep the receipt", func() {
			Expect(response.StatusCode).To(Equal(http.StatusOK))
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(1))
		})
	})

	When("the uploaded object is missing", func() {
		BeforeEach(func() {
			event.Records[0].S3.Object.Key = "uploads/missing.png"
		})

		It("should report failure and change nothing", func() {
			Expect(response.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(analyzer.calls).To(BeEmpty())
			Expect(mailer.sent).To(BeEmpty())

			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(BeEmpty())
		})
	})
})
