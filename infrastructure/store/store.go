package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainStore "github.com/AzielCF/az-bot/domains/store"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultRefetchInterval bounds how often an empty group cache triggers a full fetch.
const DefaultRefetchInterval = time.Minute

// Store is the in-memory cache of group metadata and contacts.
type Store struct {
	mu            sync.RWMutex
	groupMetadata map[string]domainStore.GroupMetadata
	contacts      map[string]domainStore.Contact

	fetchGroup      singleflight.Group
	lastFetch       time.Time
	refetchInterval time.Duration
	now             func() time.Time
}

func NewStore() *Store {
	return &Store{
		groupMetadata:   make(map[string]domainStore.GroupMetadata),
		contacts:        make(map[string]domainStore.Contact),
		refetchInterval: DefaultRefetchInterval,
		now:             time.Now,
	}
}

var _ domainStore.IStore = (*Store)(nil)

func (s *Store) Group(jid string) (domainStore.GroupMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groupMetadata[jid]
	if !ok {
		return domainStore.GroupMetadata{}, false
	}
	return g.Clone(), true
}

func (s *Store) Groups() map[string]domainStore.GroupMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domainStore.GroupMetadata, len(s.groupMetadata))
	for k, v := range s.groupMetadata {
		out[k] = v.Clone()
	}
	return out
}

func (s *Store) GroupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groupMetadata)
}

func (s *Store) Contact(jid string) (domainStore.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[jid]
	return c, ok
}

func (s *Store) Contacts() map[string]domainStore.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domainStore.Contact, len(s.contacts))
	for k, v := range s.contacts {
		out[k] = v
	}
	return out
}

func (s *Store) ContactCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts)
}

// EnsureGroups fills an empty group cache with one fetch shared by every
// concurrent caller. An empty result holds off the next attempt for the
// refetch interval; a failed fetch is retried on the next call.
func (s *Store) EnsureGroups(ctx context.Context, fetch domainStore.FetchGroupsFunc) error {
	if fetch == nil {
		return errors.New("store: nil group fetcher")
	}

	s.mu.RLock()
	populated := len(s.groupMetadata) > 0
	recent := !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.refetchInterval
	s.mu.RUnlock()
	if populated || recent {
		return nil
	}

	_, err, _ := s.fetchGroup.Do("groups", func() (any, error) {
		s.mu.Lock()
		if len(s.groupMetadata) > 0 || (!s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.refetchInterval) {
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		groups, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch participating groups: %w", err)
		}

		s.mu.Lock()
		s.lastFetch = s.now()
		for jid, meta := range groups {
			if jid == "" {
				continue
			}
			meta.ID = jid
			s.groupMetadata[jid] = meta.Clone()
		}
		count := len(s.groupMetadata)
		s.mu.Unlock()

		logrus.Debugf("[STORE] Group metadata refreshed: %d groups", count)
		return nil, nil
	})
	return err
}

func (s *Store) PutGroup(meta domainStore.GroupMetadata) {
	if meta.ID == "" {
		return
	}
	s.mu.Lock()
	s.groupMetadata[meta.ID] = meta.Clone()
	s.mu.Unlock()
}

// PatchGroup applies a partial update to a known group. Unknown groups are ignored.
func (s *Store) PatchGroup(jid string, patch domainStore.GroupPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groupMetadata[jid]
	if !ok {
		return false
	}
	g = g.Clone()

	if patch.Subject != nil {
		g.Subject = *patch.Subject
	}
	if patch.Desc != nil {
		g.Desc = *patch.Desc
	}
	if patch.Announce != nil {
		g.Announce = *patch.Announce
	}
	if patch.Restrict != nil {
		g.Restrict = *patch.Restrict
	}

	for _, id := range patch.Join {
		if indexOf(g.Participants, id) < 0 {
			g.Participants = append(g.Participants, domainStore.Participant{ID: id})
		}
	}
	for _, id := range patch.Leave {
		if i := indexOf(g.Participants, id); i >= 0 {
			g.Participants = append(g.Participants[:i], g.Participants[i+1:]...)
		}
	}
	for _, id := range patch.Promote {
		if i := indexOf(g.Participants, id); i >= 0 && g.Participants[i].Admin == "" {
			g.Participants[i].Admin = domainStore.AdminRole
		}
	}
	for _, id := range patch.Demote {
		if i := indexOf(g.Participants, id); i >= 0 {
			g.Participants[i].Admin = ""
		}
	}

	s.groupMetadata[jid] = g
	return true
}

func (s *Store) RemoveGroup(jid string) {
	s.mu.Lock()
	delete(s.groupMetadata, jid)
	s.mu.Unlock()
}

// PutContact merges contact into the cache. Empty fields keep the known value.
func (s *Store) PutContact(contact domainStore.Contact) {
	if contact.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.contacts[contact.ID]
	cur.ID = contact.ID
	if contact.Name != "" {
		cur.Name = contact.Name
	}
	if contact.Notify != "" {
		cur.Notify = contact.Notify
	}
	if contact.VerifiedName != "" {
		cur.VerifiedName = contact.VerifiedName
	}
	s.contacts[contact.ID] = cur
}

func (s *Store) SetContactName(jid, notify string) {
	s.PutContact(domainStore.Contact{ID: jid, Notify: notify})
}

// Reset drops everything, used when a fresh unauthenticated session starts.
func (s *Store) Reset() {
	s.mu.Lock()
	s.groupMetadata = make(map[string]domainStore.GroupMetadata)
	s.contacts = make(map[string]domainStore.Contact)
	s.lastFetch = time.Time{}
	s.mu.Unlock()
}

// Load warms the cache from the JSON files written by the persistence loop.
// Missing files are not an error.
func (s *Store) Load(groupPath, contactPath string) error {
	var errs []error

	groups := map[string]domainStore.GroupMetadata{}
	if _, err := utils.ReadJSONFile(groupPath, &groups); err != nil {
		errs = append(errs, err)
	}
	contacts := map[string]domainStore.Contact{}
	if _, err := utils.ReadJSONFile(contactPath, &contacts); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	for jid, g := range groups {
		g.ID = jid
		s.groupMetadata[jid] = g
	}
	for jid, c := range contacts {
		c.ID = jid
		s.contacts[jid] = c
	}
	s.mu.Unlock()

	logrus.Infof("[STORE] Warm start: %d groups, %d contacts", len(groups), len(contacts))
	return errors.Join(errs...)
}

func (s *Store) Snapshot() domainStore.Snapshot {
	return domainStore.Snapshot{
		GroupMetadata: s.Groups(),
		Contacts:      s.Contacts(),
		SavedAt:       s.now().UTC(),
	}
}

func indexOf(ps []domainStore.Participant, id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}
