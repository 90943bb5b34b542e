package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-pipeline/internal/receipt"
	"github.com/zombor/receipt-pipeline/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local runs may keep settings in a .env file; Lambda uses the function environment
	_ = godotenv.Load()

	fs := ff.NewFlagSet("receipt-processor")
	var (
		dynamoTable  = fs.StringLong("dynamodb-table", "Table_name", "DynamoDB table name (partition key receipt_id, sort key date)")
		senderEmail  = fs.StringLong("ses-sender-email", "sender_email", "Verified sender email address")
		recipients   = fs.StringLong("ses-recipient-email", "receiver_email", "Notification recipient address, comma-separated for several")
		analyzerType = fs.StringLong("analyzer", "textract", "Analyzer type: 'textract', 'gemini' or 'ollama'")
		storeType    = fs.StringLong("store", "dynamodb", "Store type: 'dynamodb' or 'bolt'")
		mailerType   = fs.StringLong("mailer", "ses", "Mailer type: 'ses' or 'resend'")
		storageType  = fs.StringLong("storage", "s3", "Object storage type: 's3' or 'local'")
		storagePath  = fs.StringLong("storage-path", "./objects", "Base directory for local object storage (one subdirectory per bucket)")
		dbPath       = fs.StringLong("db", "receipts.db", "BoltDB file path when --store=bolt")
		geminiKey    = fs.StringLong("gemini-api-key", "", "Google Gemini API key")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		resendKey    = fs.StringLong("resend-api-key", "", "Resend API key when --mailer=resend")
		eventPath    = fs.StringLong("event", "", "Process a single S3 event JSON file instead of starting the Lambda runtime")
		listStored   = fs.BoolLong("list", "Print receipts stored in the BoltDB file and exit")
		_            = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *listStored {
		if err := listReceipts(*dbPath); err != nil {
			slog.Error("Failed to list receipts", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	// Clients are created once and reused across invocations of a warm Lambda
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("Failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	// Initialize object storage
	var storage receipt.Storage
	switch *storageType {
	case "s3":
		storage = receipt.NewS3Storage(s3.NewFromConfig(awsCfg))
	case "local":
		slog.Info("Initializing local storage...", "path", *storagePath)
		storage, err = receipt.NewLocalStorage(*storagePath)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid storage type", "type", *storageType, "valid", "s3 or local")
		os.Exit(1)
	}

	// Initialize analyzer based on type
	var analyzer scanning.Analyzer
	switch *analyzerType {
	case "textract":
		analyzer, err = scanning.NewTextract(textract.NewFromConfig(awsCfg))
	case "gemini":
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		analyzer, err = scanning.NewGemini(*geminiKey, *geminiModel, storage)
	case "ollama":
		slog.Info("Initializing Ollama analyzer...", "url", *ollamaURL, "model", *ollamaModel)
		analyzer, err = scanning.NewOllama(*ollamaURL, *ollamaModel, storage)
	default:
		slog.Error("Invalid analyzer type", "type", *analyzerType, "valid", "textract, gemini or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize analyzer", "type", *analyzerType, "error", err)
		os.Exit(1)
	}
	defer analyzer.Close()

	// Initialize database
	var db receipt.DB
	switch *storeType {
	case "dynamodb":
		db, err = receipt.NewDynamoDB(dynamodb.NewFromConfig(awsCfg), *dynamoTable)
	case "bolt":
		slog.Info("Initializing database...", "path", *dbPath)
		db, err = receipt.NewBoltDB(*dbPath)
	default:
		slog.Error("Invalid store type", "type", *storeType, "valid", "dynamodb or bolt")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize mailer
	var mailer receipt.Mailer
	switch *mailerType {
	case "ses":
		mailer = receipt.NewSESMailer(ses.NewFromConfig(awsCfg))
	case "resend":
		mailer, err = receipt.NewResendMailer(*resendKey)
		if err != nil {
			slog.Error("Failed to initialize Resend", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid mailer type", "type", *mailerType, "valid", "ses or resend")
		os.Exit(1)
	}

	notifier := receipt.NewNotifier(mailer, *senderEmail, splitAddresses(*recipients))
	service := receipt.NewService(db, analyzer, storage, notifier)

	if *eventPath != "" {
		code := runEventFile(ctx, service, *eventPath)
		analyzer.Close()
		db.Close()
		os.Exit(code)
	}

	slog.Info("Starting Lambda handler",
		"version", version,
		"analyzer", *analyzerType,
		"store", *storeType,
		"table", *dynamoTable,
		"region", awsCfg.Region,
	)
	lambda.Start(func(ctx context.Context, event events.S3Event) (receipt.Response, error) {
		return service.HandleEvent(ctx, event), nil
	})
}

// runEventFile processes one event from disk and returns the process exit code
func runEventFile(ctx context.Context, service *receipt.Service, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read event file", "path", path, "error", err)
		return 1
	}

	var event events.S3Event
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to parse event file", "path", path, "error", err)
		return 1
	}

	response := service.HandleEvent(ctx, event)
	out, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(out))

	if response.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func listReceipts(path string) error {
	db, err := receipt.NewBoltDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	receipts, err := db.ListReceipts()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(receipts)
}

func splitAddresses(s string) []string {
	var addresses []string
	for _, addr := range strings.Split(s, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}
