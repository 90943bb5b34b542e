package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/zombor/receipt-pipeline/internal/scanning"
)

// Failure kinds reported by ProcessReceipt
var (
	ErrAccess      = errors.New("receipt object not accessible")
	ErrAnalysis    = errors.New("expense analysis failed")
	ErrPersistence = errors.New("storing receipt failed")
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Response is the result returned to the invoker
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Service runs the receipt pipeline: check object, analyze, store, notify
type Service struct {
	db          DB
	analyzer    scanning.Analyzer
	storage     Storage
	notifier    *Notifier
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, analyzer scanning.Analyzer, storage Storage, notifier *Notifier) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		storage:     storage,
		notifier:    notifier,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer scanning.Analyzer, storage Storage, notifier *Notifier, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		storage:     storage,
		notifier:    notifier,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// HandleEvent processes the first record of an S3 upload event
func (s *Service) HandleEvent(ctx context.Context, event events.S3Event) Response {
	loc, err := locationFromEvent(event)
	if err != nil {
		slog.Error("Error processing receipt", "error", err)
		return failure(err)
	}

	slog.Info("Processing receipt", "bucket", loc.Bucket, "key", loc.Key)

	if _, err := s.ProcessReceipt(ctx, loc); err != nil {
		slog.Error("Error processing receipt", "bucket", loc.Bucket, "key", loc.Key, "error", err)
		return failure(err)
	}

	return Response{
		StatusCode: http.StatusOK,
		Body:       jsonString("Receipt processed successfully!"),
	}
}

// ProcessReceipt runs the pipeline for one object. Notification failures are logged, not returned.
func (s *Service) ProcessReceipt(ctx context.Context, loc scanning.Location) (*Record, error) {
	if err := s.storage.Exists(ctx, loc); err != nil {
		return nil, fmt.Errorf("%w: unable to access object %s in bucket %s: %w", ErrAccess, loc.Key, loc.Bucket, err)
	}
	slog.Info("Object verification successful", "bucket", loc.Bucket, "key", loc.Key)

	record, err := s.process(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	if err := s.store(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.notifier.Notify(ctx, record); err != nil {
		slog.Warn("Failed to send email notification, continuing", "receipt_id", record.ID, "error", err)
	}

	return record, nil
}

// process analyzes the object and maps the result onto a fresh Record
func (s *Service) process(ctx context.Context, loc scanning.Location) (*Record, error) {
	resp, err := s.analyzer.AnalyzeExpense(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("analyzing expense: %w", err)
	}

	record := NewRecord(s.idGenerator.Generate(), s.timeSource.Now(), loc, resp)
	slog.Info("Extracted receipt data",
		"receipt_id", record.ID,
		"vendor", record.Vendor,
		"date", record.Date,
		"total", record.Total,
		"items", len(record.Items),
	)
	return record, nil
}

func (s *Service) store(ctx context.Context, record *Record) error {
	if err := s.db.SaveReceipt(ctx, record.Item(s.timeSource.Now())); err != nil {
		return fmt.Errorf("saving receipt to database: %w", err)
	}
	slog.Info("Receipt stored", "receipt_id", record.ID)
	return nil
}

// locationFromEvent extracts the bucket and decoded key of the first event record
func locationFromEvent(event events.S3Event) (scanning.Location, error) {
	if len(event.Records) == 0 {
		return scanning.Location{}, fmt.Errorf("event contains no records")
	}
	entity := event.Records[0].S3

	// Keys arrive form-encoded: "my+receipt%281%29.jpg" is "my receipt(1).jpg"
	key, err := url.QueryUnescape(entity.Object.Key)
	if err != nil {
		return scanning.Location{}, fmt.Errorf("%w: decoding object key %q: %w", ErrAccess, entity.Object.Key, err)
	}
	if entity.Bucket.Name == "" || key == "" {
		return scanning.Location{}, fmt.Errorf("event record is missing bucket or key")
	}

	return scanning.Location{Bucket: entity.Bucket.Name, Key: key}, nil
}

func failure(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       jsonString(fmt.Sprintf("Error: %s", err)),
	}
}

func jsonString(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(data)
}
