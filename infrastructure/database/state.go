package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	"github.com/sirupsen/logrus"
)

// State owns the in-memory application document and its backing repository.
// All access goes through View and Update so readers never see a half-applied change.
type State struct {
	repo domainDatabase.IDocumentRepository

	mu     sync.RWMutex
	doc    *domainDatabase.Document
	dirty  bool
	loaded bool

	flushMu sync.Mutex
}

func NewState(repo domainDatabase.IDocumentRepository) *State {
	return &State{
		repo: repo,
		doc:  domainDatabase.NewDocument(),
	}
}

var _ domainDatabase.IState = (*State)(nil)

// Load reads the stored document and merges it over the empty seed. On first
// run (nothing stored, or an empty object) the seed is written right away.
func (s *State) Load(ctx context.Context) error {
	data, err := s.repo.Read(ctx)
	if err != nil {
		return fmt.Errorf("read database: %w", err)
	}

	doc := domainDatabase.NewDocument()
	firstRun := len(data) == 0
	if !firstRun {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode database: %w", err)
		}
		firstRun = len(raw) == 0
		if !firstRun {
			if err := json.Unmarshal(data, doc); err != nil {
				return fmt.Errorf("decode database: %w", err)
			}
		}
	}

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.dirty = false
	s.mu.Unlock()

	if firstRun {
		if err := s.write(ctx); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
		logrus.Info("[DATABASE] Database has been initialized")
		return nil
	}

	logrus.Infof("[DATABASE] Database loaded: %d users, %d groups, %d settings",
		len(doc.Users), len(doc.Groups), len(doc.Settings))
	return nil
}

// View runs fn on a copy of the document taken under the read lock. Writes
// must go through Update.
func (s *State) View(fn func(doc *domainDatabase.Document)) {
	s.mu.RLock()
	doc := s.doc.Clone()
	s.mu.RUnlock()
	fn(doc)
}

// Update runs fn under the write lock. The document is marked dirty only when fn succeeds.
func (s *State) Update(fn func(doc *domainDatabase.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	s.doc.Normalize()
	s.dirty = true
	return nil
}

// Flush writes the document when it changed since the last write.
func (s *State) Flush(ctx context.Context) error {
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if !dirty {
		return nil
	}
	return s.write(ctx)
}

func (s *State) write(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	data, err := json.Marshal(s.doc)
	s.dirty = false
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.repo.Write(ctx, data); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *State) Close() error {
	return s.repo.Close()
}
