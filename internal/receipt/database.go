package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "receipts"

// DB defines the interface for receipt persistence
type DB interface {
	// SaveReceipt writes a receipt, overwriting any existing one with the same (receipt_id, date)
	SaveReceipt(ctx context.Context, receipt *StoredReceipt) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB, for local runs
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func receiptKey(id, date string) []byte {
	return []byte(id + "#" + date)
}

// SaveReceipt saves a receipt to the database
func (b *BoltDB) SaveReceipt(ctx context.Context, receipt *StoredReceipt) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return bucket.Put(receiptKey(receipt.ReceiptID, receipt.Date), data)
	})
}

// GetReceipt retrieves a receipt by its (receipt_id, date) key
func (b *BoltDB) GetReceipt(id, date string) (*StoredReceipt, error) {
	var receipt *StoredReceipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get(receiptKey(id, date))
		if data == nil {
			return fmt.Errorf("receipt not found: %s", id)
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns all receipts, most recently processed first
func (b *BoltDB) ListReceipts() ([]*StoredReceipt, error) {
	receipts := make([]*StoredReceipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var receipt StoredReceipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].ProcessedTimestamp > receipts[j].ProcessedTimestamp
	})
	return receipts, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
