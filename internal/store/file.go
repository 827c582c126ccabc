package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// fileState is the on-disk shape of the JSON backend: the whole
// binding map plus the checkpoint in one document.
type fileState struct {
	Bindings   map[string]Binding `json:"bindings"`
	Checkpoint string             `json:"checkpoint,omitempty"`
}

// FileStore is the JSON file backend. Every operation reads the entire
// file, mutates the map in memory, and writes the entire file back.
// A process-local mutex serializes operations; there is no inter-process
// locking, so concurrent processes sharing one store file follow
// last-writer-wins.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a JSON file store at path. The file is created
// lazily on first write; its parent directory is created here.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Bind implements Store.Bind.
func (s *FileStore) Bind(noteID string, fields Fields) (*Binding, error) {
	var bound Binding
	err := s.mutate(func(st *fileState) {
		b := st.Bindings[noteID]
		fields.apply(&b)
		st.Bindings[noteID] = b
		bound = b
	})
	if err != nil {
		return nil, err
	}
	return &bound, nil
}

// Get implements Store.Get.
func (s *FileStore) Get(noteID string) (*Binding, error) {
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	b, ok := st.Bindings[noteID]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	return &b, nil
}

// Update implements Store.Update.
func (s *FileStore) Update(noteID string, fields Fields) error {
	return s.mutate(func(st *fileState) {
		b, ok := st.Bindings[noteID]
		if !ok {
			return
		}
		fields.apply(&b)
		st.Bindings[noteID] = b
	})
}

// MarkAccessLost implements Store.MarkAccessLost.
func (s *FileStore) MarkAccessLost(noteID string) error {
	return s.Update(noteID, Fields{AccessLost: Bool(true)})
}

// ResolveRemote implements Store.ResolveRemote.
func (s *FileStore) ResolveRemote(remoteDocID string) ([]string, error) {
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	var notes []string
	for id, b := range st.Bindings {
		if b.RemoteDocID == remoteDocID {
			notes = append(notes, id)
		}
	}
	sort.Strings(notes)
	return notes, nil
}

// All implements Store.All.
func (s *FileStore) All() (map[string]Binding, error) {
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.Bindings, nil
}

// Checkpoint implements Store.Checkpoint.
func (s *FileStore) Checkpoint() (string, error) {
	st, err := s.load()
	if err != nil {
		return "", err
	}
	return st.Checkpoint, nil
}

// SetCheckpoint implements Store.SetCheckpoint.
func (s *FileStore) SetCheckpoint(cursor string) error {
	return s.mutate(func(st *fileState) {
		st.Checkpoint = cursor
	})
}

// Close implements Store.Close. The file backend holds no resources.
func (s *FileStore) Close() error { return nil }

// load reads and decodes the whole store file. A missing file is an
// empty store.
func (s *FileStore) load() (*fileState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() (*fileState, error) {
	st := &fileState{Bindings: make(map[string]Binding)}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", s.path, err)
	}
	if st.Bindings == nil {
		st.Bindings = make(map[string]Binding)
	}
	return st, nil
}

// mutate runs fn over the loaded state and writes the whole state back
// through a temp-file rename, so readers never observe a torn write.
func (s *FileStore) mutate(fn func(*fileState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(st)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
