// Package cache persists embeddings in a bbolt file so repeated queries and
// unchanged chunks are not re-embedded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/rankpulse/internal/core/ports/driven"
)

var bucketEmbeddings = []byte("embeddings")

// Ensure Store and Service implement their interfaces.
var (
	_ driven.EmbeddingCache   = (*Store)(nil)
	_ driven.EmbeddingService = (*Service)(nil)
)

// Store is a bbolt-backed driven.EmbeddingCache.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached vector for model and text.
func (s *Store) Get(model, text string) ([]float32, bool, error) {
	var vec []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(key(model, text))
		if data != nil {
			vec = decode(data)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading embedding cache: %w", err)
	}
	return vec, vec != nil, nil
}

// Put stores a vector for model and text.
func (s *Store) Put(model, text string, vec []float32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(key(model, text), encode(vec))
	})
}

// Close closes the cache file.
func (s *Store) Close() error {
	return s.db.Close()
}

// key is model, NUL, then the SHA-256 of the text.
func key(model, text string) []byte {
	sum := sha256.Sum256([]byte(text))
	k := make([]byte, 0, len(model)+1+len(sum))
	k = append(k, model...)
	k = append(k, 0)
	return append(k, sum[:]...)
}

func encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) []float32 {
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

// Service is an EmbeddingService decorator that consults a cache first.
// Misses in a batch are embedded together in one provider call.
type Service struct {
	next  driven.EmbeddingService
	cache driven.EmbeddingCache
}

// New wraps next with cache.
func New(next driven.EmbeddingService, cache driven.EmbeddingCache) *Service {
	return &Service{next: next, cache: cache}
}

// Embed returns the cached vector or embeds and stores it.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch fills hits from the cache and embeds the rest in order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	model := s.next.ModelName()
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		vec, ok, err := s.cache.Get(model, t)
		if err != nil || !ok {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, t)
			continue
		}
		out[i] = vec
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: provider returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		// A failed write only costs a future re-embed.
		_ = s.cache.Put(model, missTexts[j], vecs[j])
	}
	return out, nil
}

// Dimensions delegates.
func (s *Service) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates.
func (s *Service) ModelName() string { return s.next.ModelName() }

// Ping delegates.
func (s *Service) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the provider and the cache.
func (s *Service) Close() error {
	err := s.next.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
