package tokenstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
)

var bucketTokens = []byte("telegram_tokens")

// Bolt persists tokens in a BoltDB file.
type Bolt struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string, ttl time.Duration) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTokens)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %q: %w", bucketTokens, err)
	}
	return &Bolt{db: db, ttl: ttl, now: time.Now}, nil
}

func key(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func (s *Bolt) Get(userID int64) (string, bool) {
	var (
		e     entry
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTokens).Get(key(userID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		slog.Warn("token store read failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return "", false
	}
	if !found {
		return "", false
	}
	if e.expired(s.ttl, s.now()) {
		if err := s.Delete(userID); err != nil {
			slog.Warn("token store expire failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return "", false
	}
	return e.Token, true
}

func (s *Bolt) Set(userID int64, token string) error {
	data, err := json.Marshal(entry{Token: token, SavedAt: s.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).Put(key(userID), data)
	})
}

func (s *Bolt) Delete(userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).Delete(key(userID))
	})
}

func (s *Bolt) Count() int {
	now := s.now()
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokens).ForEach(func(_, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return nil
			}
			if !e.expired(s.ttl, now) {
				n++
			}
			return nil
		})
	})
	if err != nil {
		slog.Warn("token store count failed", slog.Any("error", err))
	}
	return n
}

// Close closes the underlying BoltDB instance.
func (s *Bolt) Close() error {
	return s.db.Close()
}
