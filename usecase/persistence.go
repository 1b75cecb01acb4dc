package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/sirupsen/logrus"
)

const DefaultPersistInterval = 30 * time.Second

// PersistenceService periodically writes the Store snapshots and flushes the
// database document.
type PersistenceService struct {
	session config.SessionConfig
	store   domainStore.IStore
	db      domainDatabase.IState

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewPersistenceService(session config.SessionConfig, st domainStore.IStore, db domainDatabase.IState) *PersistenceService {
	return &PersistenceService{session: session, store: st, db: db, now: time.Now}
}

// Start runs the scheduler on its own goroutine until ctx ends. The returned
// channel is closed once the loop has exited.
func (p *PersistenceService) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	interval := p.session.PersistInterval
	if interval <= 0 {
		interval = DefaultPersistInterval
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logrus.Infof("[PERSIST] Writing session state every %s", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.FlushNow(ctx)
			}
		}
	}()
	return done
}

// FlushNow runs every persistence step once. Steps are independent; their
// errors are logged and returned joined.
func (p *PersistenceService) FlushNow(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			logrus.WithError(err).Errorf("[PERSIST] %s failed", name)
			errs = append(errs, err)
		}
	}

	if p.store != nil {
		if groups := p.store.Groups(); len(groups) > 0 {
			step("groupMetadata", func() error {
				return utils.WriteJSONFile(p.session.GroupMetadataPath(), groups)
			})
		}
		if contacts := p.store.Contacts(); len(contacts) > 0 {
			step("contacts", func() error {
				return utils.WriteJSONFile(p.session.ContactsPath(), contacts)
			})
		}
	}
	if p.db != nil {
		step("database", func() error { return p.db.Flush(ctx) })
	}
	if p.session.WriteStore && p.store != nil {
		step("store", func() error {
			return utils.WriteJSONFile(p.session.StorePath(), p.store.Snapshot())
		})
	}

	if len(errs) == 0 {
		p.last = p.now()
		logrus.Debug("[PERSIST] Session state written")
	}
	return errors.Join(errs...)
}

// LastPersist returns the time of the last fully successful run, if any.
func (p *PersistenceService) LastPersist() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last.IsZero() {
		return nil
	}
	t := p.last
	return &t
}
