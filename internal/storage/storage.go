// Package storage keeps an optional log of classification outcomes in BoltDB.
//
// Only the outcome of each request is recorded: the label, the model version
// that produced it and a little request bookkeeping. Feature vectors are
// never written.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	dbFileName     = "heart-predictor.db"
	outcomesBucket = "outcomes" // Bucket name for classification outcomes
)

// Outcome is one stored classification result.
type Outcome struct {
	Timestamp    time.Time `json:"timestamp"`
	Label        int       `json:"label"`
	ModelVersion string    `json:"model_version"`
	Source       string    `json:"source"` // form, api or cli
	LatencyMs    float64   `json:"latency_ms"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Counts summarizes the stored outcomes.
type Counts struct {
	Total     int            `json:"total"`
	Negative  int            `json:"negative"`
	Positive  int            `json:"positive"`
	ByVersion map[string]int `json:"by_version"`
	First     time.Time      `json:"first,omitempty"`
	Last      time.Time      `json:"last,omitempty"`
}

// Store provides persistent storage for classification outcomes using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (or creates) the outcome database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(outcomesBucket)); err != nil {
			return fmt.Errorf("create outcomes bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Path is the database file location.
func (s *Store) Path() string {
	return s.db.Path()
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreOutcome appends an outcome. The key is the model version, "_" and the
// big-endian timestamp (see outcomeKey); when
// two outcomes share a nanosecond the later one is moved forward until its
// key is free.
func (s *Store) StoreOutcome(o Outcome) error {
	if o.ModelVersion == "" {
		return errors.New("outcome has no model version")
	}
	if o.Label != 0 && o.Label != 1 {
		return fmt.Errorf("outcome label %d is not 0 or 1", o.Label)
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(outcomesBucket))

		key := outcomeKey(o.ModelVersion, o.Timestamp)
		for b.Get(key) != nil {
			o.Timestamp = o.Timestamp.Add(time.Nanosecond)
			key = outcomeKey(o.ModelVersion, o.Timestamp)
		}

		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal outcome: %w", err)
		}
		return b.Put(key, data)
	})
}

// Outcomes returns the outcomes of one model version within [start, end],
// ordered by timestamp.
func (s *Store) Outcomes(modelVersion string, start, end time.Time) ([]Outcome, error) {
	var outcomes []Outcome

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(outcomesBucket))
		c := b.Cursor()

		prefix := []byte(modelVersion + "_")
		startKey := outcomeKey(modelVersion, start)
		endKey := outcomeKey(modelVersion, end)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			// "v_1" keys share the "v_" prefix but are longer
			if len(k) != len(prefix)+8 || !bytes.HasPrefix(k, prefix) {
				continue
			}

			var o Outcome
			if err := json.Unmarshal(v, &o); err != nil {
				continue // Skip malformed records
			}
			if o.ModelVersion != modelVersion || o.Timestamp.Before(start) || o.Timestamp.After(end) {
				continue
			}
			outcomes = append(outcomes, o)
		}
		return nil
	})

	return outcomes, err
}

// Counts tallies every stored outcome.
func (s *Store) Counts() (Counts, error) {
	counts := Counts{ByVersion: make(map[string]int)}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(outcomesBucket)).ForEach(func(_, v []byte) error {
			var o Outcome
			if err := json.Unmarshal(v, &o); err != nil {
				return nil // Skip malformed records
			}

			counts.Total++
			if o.Label == 1 {
				counts.Positive++
			} else {
				counts.Negative++
			}
			counts.ByVersion[o.ModelVersion]++

			if counts.First.IsZero() || o.Timestamp.Before(counts.First) {
				counts.First = o.Timestamp
			}
			if o.Timestamp.After(counts.Last) {
				counts.Last = o.Timestamp
			}
			return nil
		})
	})

	return counts, err
}

// outcomeKey appends the unix nanos as 8 big-endian bytes with the sign bit
// flipped, so byte order matches time order for any instant, pre-1970 included.
func outcomeKey(modelVersion string, ts time.Time) []byte {
	key := make([]byte, 0, len(modelVersion)+9)
	key = append(key, modelVersion...)
	key = append(key, '_')
	return binary.BigEndian.AppendUint64(key, uint64(unixNano(ts))^(1<<63))
}

var (
	minNanoTime = time.Unix(0, math.MinInt64)
	maxNanoTime = time.Unix(0, math.MaxInt64)
)

// unixNano clamps to the int64 range; UnixNano is undefined outside it.
func unixNano(ts time.Time) int64 {
	switch {
	case ts.Before(minNanoTime):
		return math.MinInt64
	case ts.After(maxNanoTime):
		return math.MaxInt64
	}
	return ts.UnixNano()
}
