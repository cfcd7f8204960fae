package themes

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

// Store reads and writes the themes configuration file. Every mutation is a
// full load, mutate, save cycle guarded by an in-process mutex and an advisory
// file lock, so concurrent writers cannot overwrite each other's changes.
type Store struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewStore creates a store for the themes configuration file at path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the path of the themes configuration file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current document.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	return s.read()
}

// Update runs fn on a freshly loaded document and saves the result, all under
// the store locks. If fn returns an error, nothing is written.
func (s *Store) Update(fn func(*Document) error) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", s.path, err)
	}
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode themes config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", s.path, err)
	}
	return nil
}
