package artifact

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/alphadose/haxmap"
)

// ErrNotFound is returned when an artifact does not exist in a store.
var ErrNotFound = errors.New("artifact not found")

// Store persists artifacts and their version history.
type Store interface {
	// Get returns the latest version of the artifact.
	Get(ctx context.Context, id string) (Artifact, error)
	// Put saves a new version of the artifact.
	Put(ctx context.Context, a Artifact) error
	// List returns the latest version of every artifact of the kind.
	List(ctx context.Context, kind string) ([]Artifact, error)
	// History returns every saved version of the artifact, oldest first.
	History(ctx context.Context, id string) ([]Artifact, error)
}

type memoryEntry struct {
	mu       sync.Mutex
	versions []Artifact
}

type memoryStore struct {
	artifacts *haxmap.Map[string, *memoryEntry]
}

// NewMemoryStore returns an in-memory store. Artifacts on distinct IDs
// do not contend.
func NewMemoryStore() Store {
	return &memoryStore{
		artifacts: haxmap.New[string, *memoryEntry](),
	}
}

func (s *memoryStore) Get(ctx context.Context, id string) (Artifact, error) {
	entry, ok := s.artifacts.Get(id)
	if !ok {
		return Artifact{}, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if len(entry.versions) == 0 {
		return Artifact{}, ErrNotFound
	}
	return cloneArtifact(entry.versions[len(entry.versions)-1]), nil
}

func (s *memoryStore) Put(ctx context.Context, a Artifact) error {
	entry, _ := s.artifacts.GetOrCompute(a.ID, func() *memoryEntry {
		return &memoryEntry{}
	})

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.versions = append(entry.versions, cloneArtifact(a))
	return nil
}

func (s *memoryStore) List(ctx context.Context, kind string) ([]Artifact, error) {
	var result []Artifact
	s.artifacts.ForEach(func(id string, entry *memoryEntry) bool {
		entry.mu.Lock()
		if len(entry.versions) > 0 {
			latest := entry.versions[len(entry.versions)-1]
			if latest.Kind == kind {
				result = append(result, cloneArtifact(latest))
			}
		}
		entry.mu.Unlock()
		return true
	})

	slices.SortFunc(result, func(a, b Artifact) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (s *memoryStore) History(ctx context.Context, id string) ([]Artifact, error) {
	entry, ok := s.artifacts.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	history := make([]Artifact, 0, len(entry.versions))
	for _, v := range entry.versions {
		history = append(history, cloneArtifact(v))
	}
	return history, nil
}

func cloneArtifact(a Artifact) Artifact {
	a.Document = slices.Clone(a.Document)
	return a
}
