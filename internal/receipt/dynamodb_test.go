package receipt

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockDynamoDB is a mock implementation of DynamoDBAPI
type mockDynamoDB struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (m *mockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

var _ = Describe("DynamoDB", func() {
	var (
		client  *mockDynamoDB
		db      *DynamoDB
		receipt *StoredReceipt
		err     error
	)

	BeforeEach(func() {
		client = &mockDynamoDB{}
		var newErr error
		db, newErr = NewDynamoDB(client, "Receipts")
		Expect(newErr).NotTo(HaveOccurred())

		receipt = &StoredReceipt{
			ReceiptID:          "test-id",
			Date:               "2024-03-01",
			Vendor:             "Cafe X",
			Total:              "12.50",
			Items:              []StoredItem{{Name: "Coffee", Price: "4.00", Quantity: "2"}},
			SourceReference:    "s3://receipts/a.jpg",
			ProcessedTimestamp: "2024-03-01T10:00:00Z",
		}
	})

	JustBeforeEach(func() {
		err = db.SaveReceipt(context.Background(), receipt)
	})

	When("the put succeeds", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should write one item to the configured table", func() {
			Expect(client.inputs).To(HaveLen(1))
			Expect(aws.ToString(client.inputs[0].TableName)).To(Equal("Receipts"))
		})

		It("should key the item by receipt_id and date", func() {
			item := client.inputs[0].Item
			Expect(item["receipt_id"]).To(Equal(&types.AttributeValueMemberS{Value: "test-id"}))
			Expect(item["date"]).To(Equal(&types.AttributeValueMemberS{Value: "2024-03-01"}))
		})

		It("should store every attribute", func() {
			item := client.inputs[0].Item
			Expect(item).To(HaveKey("vendor"))
			Expect(item).To(HaveKey("total"))
			Expect(item).To(HaveKey("s3_path"))
			Expect(item).To(HaveKey("processed_timestamp"))
			Expect(item["items"]).To(BeAssignableToTypeOf(&types.AttributeValueMemberL{}))
			list := item["items"].(*types.AttributeValueMemberL)
			Expect(list.Value).To(HaveLen(1))
			Expect(list.Value[0]).To(Equal(&types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"name":     &types.AttributeValueMemberS{Value: "Coffee"},
				"price":    &types.AttributeValueMemberS{Value: "4.00"},
				"quantity": &types.AttributeValueMemberS{Value: "2"},
			}}))
		})
	})

	When("the put fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("ResourceNotFoundException")
			client.err = setupErr
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(setupErr))
		})

		It("should not retry", func() {
			Expect(client.inputs).To(HaveLen(1))
		})
	})
})

var _ = Describe("NewDynamoDB", func() {
	It("requires a table name", func() {
		_, err := NewDynamoDB(&mockDynamoDB{}, "")
		Expect(err).To(HaveOccurred())
	})
})
