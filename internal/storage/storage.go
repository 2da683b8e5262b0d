package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNoSnapshots = errors.New("no snapshots recorded")

// Snapshot is a product page saved to disk for later replay.
type Snapshot struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	File    string    `json:"file"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotStore keeps HTML snapshots in a directory next to a JSON index.
type SnapshotStore struct {
	mu        sync.RWMutex
	dir       string
	snapshots map[string]*Snapshot
}

func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
	}

	s := &SnapshotStore{
		dir:       dir,
		snapshots: make(map[string]*Snapshot),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Save writes content to a new file and records it in the index.
func (s *SnapshotStore) Save(url, content string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		ID:      uuid.NewString(),
		URL:     url,
		SavedAt: time.Now(),
	}
	snap.File = snap.ID + ".html"

	if err := os.WriteFile(filepath.Join(s.dir, snap.File), []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	s.snapshots[snap.ID] = snap
	if err := s.save(); err != nil {
		return nil, fmt.Errorf("update snapshot index: %w", err)
	}
	return snap, nil
}

func (s *SnapshotStore) Get(id string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	return snap, ok
}

// Latest returns the most recently saved snapshot.
func (s *SnapshotStore) Latest() (*Snapshot, error) {
	list := s.List()
	if len(list) == 0 {
		return nil, ErrNoSnapshots
	}
	return list[len(list)-1], nil
}

// List returns snapshots ordered by save time.
func (s *SnapshotStore) List() []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		list = append(list, snap)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.Before(list[j].SavedAt)
	})
	return list
}

// Path returns the absolute location of the snapshot's HTML file.
func (s *SnapshotStore) Path(snap *Snapshot) string {
	return filepath.Join(s.dir, snap.File)
}

func (s *SnapshotStore) indexFile() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *SnapshotStore) save() error {
	data, err := json.MarshalIndent(s.snapshots, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.indexFile() + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpFile, s.indexFile())
}

func (s *SnapshotStore) load() error {
	data, err := os.ReadFile(s.indexFile())
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.snapshots); err != nil {
		return err
	}
	if s.snapshots == nil {
		s.snapshots = make(map[string]*Snapshot)
	}
	return nil
}
