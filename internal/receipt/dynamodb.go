package receipt

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDB
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDB implements the DB interface using a DynamoDB table with
// partition key receipt_id and sort key date
type DynamoDB struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoDB creates a new DynamoDB instance
func NewDynamoDB(client DynamoDBAPI, table string) (*DynamoDB, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is required")
	}
	if table == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	return &DynamoDB{client: client, table: table}, nil
}

// SaveReceipt puts the receipt into the table
func (d *DynamoDB) SaveReceipt(ctx context.Context, receipt *StoredReceipt) error {
	item, err := attributevalue.MarshalMap(receipt)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting item into %s: %w", d.table, err)
	}
	return nil
}

// Close is a no-op for the DynamoDB client
func (d *DynamoDB) Close() error {
	return nil
}
