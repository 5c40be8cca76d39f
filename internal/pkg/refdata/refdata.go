// Package refdata holds the editable reference lists used by registry forms.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"citizen-registry/internal/domain"
)

//go:embed seed.yaml
var seed []byte

var kinds = []domain.ReferenceKind{
	domain.RefCrimeTypes,
	domain.RefStates,
	domain.RefRanks,
	domain.RefDepartments,
}

type Store struct {
	mu    sync.RWMutex
	lists map[domain.ReferenceKind][]domain.ReferenceItem
}

// Load reads the reference lists from path, or from the embedded seed when path is empty.
func Load(path string) (*Store, error) {
	data := seed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Store, error) {
	raw := make(map[domain.ReferenceKind][]domain.ReferenceItem)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}

	s := &Store{lists: make(map[domain.ReferenceKind][]domain.ReferenceItem, len(kinds))}
	for _, k := range kinds {
		s.lists[k] = append([]domain.ReferenceItem{}, raw[k]...)
	}
	return s, nil
}

func (s *Store) List(kind domain.ReferenceKind) ([]domain.ReferenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[kind]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "reference list", ID: string(kind)}
	}
	return append([]domain.ReferenceItem{}, list...), nil
}

// Contains reports whether name is an entry of kind, compared case-insensitively.
func (s *Store) Contains(kind domain.ReferenceKind, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.lists[kind] {
		if strings.EqualFold(item.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) Add(kind domain.ReferenceKind, item domain.ReferenceItem) (domain.ReferenceItem, error) {
	if strings.TrimSpace(item.Name) == "" {
		return domain.ReferenceItem{}, domain.NewFieldError("name", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[kind]
	if !ok {
		return domain.ReferenceItem{}, &domain.NotFoundError{Entity: "reference list", ID: string(kind)}
	}

	if item.ID == "" {
		item.ID = slug(item.Name)
	}
	for _, existing := range list {
		if existing.ID == item.ID || strings.EqualFold(existing.Name, item.Name) {
			return domain.ReferenceItem{}, &domain.ConflictError{Message: fmt.Sprintf("%s already contains %q", kind, item.Name)}
		}
	}

	s.lists[kind] = append(list, item)
	return item, nil
}

func (s *Store) Update(kind domain.ReferenceKind, id string, item domain.ReferenceItem) (domain.ReferenceItem, error) {
	if strings.TrimSpace(item.Name) == "" {
		return domain.ReferenceItem{}, domain.NewFieldError("name", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[kind]
	if !ok {
		return domain.ReferenceItem{}, &domain.NotFoundError{Entity: "reference list", ID: string(kind)}
	}

	for i := range list {
		if list[i].ID == id {
			item.ID = id
			list[i] = item
			return item, nil
		}
	}
	return domain.ReferenceItem{}, &domain.NotFoundError{Entity: string(kind) + " entry", ID: id}
}

func (s *Store) Delete(kind domain.ReferenceKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[kind]
	if !ok {
		return &domain.NotFoundError{Entity: "reference list", ID: string(kind)}
	}

	for i := range list {
		if list[i].ID == id {
			s.lists[kind] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Entity: string(kind) + " entry", ID: id}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
