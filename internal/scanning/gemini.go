package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Analyzer interface using Google Gemini
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	objects ObjectReader
}

// NewGemini creates a new Gemini Analyzer instance
func NewGemini(apiKey string, modelName string, objects ObjectReader) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object reader is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	return &Gemini{
		client:  client,
		model:   model,
		objects: objects,
	}, nil
}

// AnalyzeExpense downloads the receipt at loc and asks Gemini to extract its expense fields
func (g *Gemini) AnalyzeExpense(ctx context.Context, loc Location) (*ExpenseResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	data, contentType, err := g.objects.Get(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("downloading receipt: %w", err)
	}

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return nil, err
	}

	slog.Info("Calling Gemini", "bucket", loc.Bucket, "key", loc.Key, "image_size", len(pngData))

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(receiptScanPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	expense, err := parseExpenseJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing expense data: %w", err)
	}

	return expense, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
