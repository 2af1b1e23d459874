package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotLoaded is returned while no statistics document is available
	ErrNotLoaded = errors.New("statistics not loaded")
	// ErrInvalidDecade is returned for decade labels that are not numbers
	ErrInvalidDecade = errors.New("invalid decade label")
)

// Summary holds the aggregate metrics of one genre. Every field is optional
// in per-decade entries.
type Summary struct {
	NumSongs   *int     `json:"num_songs,omitempty"`
	AvgEnergy  *float64 `json:"avg_energy,omitempty"`
	AvgValence *float64 `json:"avg_valence,omitempty"`
}

// Metadata describes the data set the document was built from
type Metadata struct {
	TotalRecords int `json:"total_records"`
}

// Document is the pre-built genres summary file
type Document struct {
	Metadata Metadata                      `json:"metadata"`
	Genres   map[string]Summary            `json:"genres"`
	Decades  map[string]map[string]Summary `json:"decades"`
}

// Store holds the most recently loaded document. It is empty until the first
// successful load and read-only afterwards, apart from whole-document reloads.
type Store struct {
	source string
	client *http.Client
	logger *logrus.Logger
	doc    atomic.Pointer[Document]
}

// NewStore creates a store reading from a file path or an http(s) URL
func NewStore(source string, logger *logrus.Logger) *Store {
	return &Store{
		source: source,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Source returns the configured document location
func (s *Store) Source() string {
	return s.source
}

// IsRemote reports whether the source is fetched over HTTP
func (s *Store) IsRemote() bool {
	return strings.HasPrefix(s.source, "http://") || strings.HasPrefix(s.source, "https://")
}

// Load fetches and decodes the document, replacing any previous one
func (s *Store) Load(ctx context.Context) error {
	rc, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	doc, err := Decode(rc)
	if err != nil {
		return err
	}

	s.Set(doc)
	s.logger.WithFields(logrus.Fields{
		"source":        s.source,
		"genres":        len(doc.Genres),
		"decades":       len(doc.Decades),
		"total_records": doc.Metadata.TotalRecords,
	}).Info("Genre statistics loaded")
	return nil
}

// LoadAsync starts a load in the background. Failures are logged and leave
// the store as it was; there is no retry.
func (s *Store) LoadAsync(ctx context.Context) {
	go func() {
		if err := s.Load(ctx); err != nil {
			s.logger.WithError(err).WithField("source", s.source).Warn("Could not load genre statistics")
		}
	}()
}

// Set replaces the current document
func (s *Store) Set(doc *Document) {
	s.doc.Store(doc)
}

// Document returns the loaded document, or nil before the first load
func (s *Store) Document() *Document {
	return s.doc.Load()
}

// Loaded reports whether a document is available
func (s *Store) Loaded() bool {
	return s.doc.Load() != nil
}

func (s *Store) open(ctx context.Context) (io.ReadCloser, error) {
	if !s.IsRemote() {
		f, err := os.Open(s.source)
		if err != nil {
			return nil, fmt.Errorf("failed to open statistics file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statistics: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch statistics: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Decode parses a statistics document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode statistics: %w", err)
	}
	if doc.Genres == nil {
		doc.Genres = make(map[string]Summary)
	}
	if doc.Decades == nil {
		doc.Decades = make(map[string]map[string]Summary)
	}
	return &doc, nil
}
