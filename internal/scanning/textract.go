package scanning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractAPI is the subset of the Textract client used by the analyzer
type TextractAPI interface {
	AnalyzeExpense(ctx context.Context, params *textract.AnalyzeExpenseInput, optFns ...func(*textract.Options)) (*textract.AnalyzeExpenseOutput, error)
}

// Textract implements the Analyzer interface using Amazon Textract AnalyzeExpense
type Textract struct {
	client TextractAPI
}

// NewTextract creates a new Textract Analyzer instance
func NewTextract(client TextractAPI) (*Textract, error) {
	if client == nil {
		return nil, fmt.Errorf("textract client is required")
	}
	return &Textract{client: client}, nil
}

// AnalyzeExpense calls AnalyzeExpense once for the object at loc
func (t *Textract) AnalyzeExpense(ctx context.Context, loc Location) (*ExpenseResponse, error) {
	slog.Info("Calling Textract AnalyzeExpense", "bucket", loc.Bucket, "key", loc.Key)

	out, err := t.client.AnalyzeExpense(ctx, &textract.AnalyzeExpenseInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(loc.Bucket),
				Name:   aws.String(loc.Key),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("textract analyze expense: %w", err)
	}

	return fromTextract(out), nil
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (t *Textract) Close() error {
	return nil
}

func fromTextract(out *textract.AnalyzeExpenseOutput) *ExpenseResponse {
	resp := &ExpenseResponse{}
	if out == nil {
		return resp
	}

	for _, doc := range out.ExpenseDocuments {
		expense := ExpenseDocument{
			SummaryFields: convertFields(doc.SummaryFields),
		}
		for _, group := range doc.LineItemGroups {
			g := LineItemGroup{}
			for _, li := range group.LineItems {
				g.LineItems = append(g.LineItems, LineItemFields{
					Fields: convertFields(li.LineItemExpenseFields),
				})
			}
			expense.LineItemGroups = append(expense.LineItemGroups, g)
		}
		resp.Documents = append(resp.Documents, expense)
	}

	return resp
}

func convertFields(fields []types.ExpenseField) []ExpenseField {
	converted := make([]ExpenseField, 0, len(fields))
	for _, f := range fields {
		var tag, value string
		if f.Type != nil {
			tag = aws.ToString(f.Type.Text)
		}
		if f.ValueDetection != nil {
			value = aws.ToString(f.ValueDetection.Text)
		}
		converted = append(converted, NewExpenseField(tag, value))
	}
	return converted
}
