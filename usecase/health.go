package usecase

import (
	"context"
	"time"

	domainHealth "github.com/AzielCF/az-bot/domains/health"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/AzielCF/az-bot/pkg/msgworker"
)

type lastPersister interface {
	LastPersist() *time.Time
}

type healthService struct {
	version   string
	startedAt time.Time
	transport domainTransport.ITransport
	store     domainStore.IStore
	plugins   domainPlugin.IRegistry
	scrapers  domainScraper.IRegistry
	pool      *msgworker.MessageWorkerPool
	persist   lastPersister
	now       func() time.Time
}

func NewHealthService(
	version string,
	transport domainTransport.ITransport,
	store domainStore.IStore,
	plugins domainPlugin.IRegistry,
	scrapers domainScraper.IRegistry,
	pool *msgworker.MessageWorkerPool,
	persist lastPersister,
) domainHealth.IHealthUsecase {
	return &healthService{
		version:   version,
		startedAt: time.Now(),
		transport: transport,
		store:     store,
		plugins:   plugins,
		scrapers:  scrapers,
		pool:      pool,
		persist:   persist,
		now:       time.Now,
	}
}

func (s *healthService) GetStatus(ctx context.Context) domainHealth.Report {
	report := domainHealth.Report{
		Status:    domainHealth.StatusDegraded,
		Version:   s.version,
		StartedAt: s.startedAt,
		Uptime:    s.now().Sub(s.startedAt).Round(time.Second).String(),
		Plugins:   []domainPlugin.Info{},
		Scrapers:  []domainScraper.Info{},
	}
	if s.transport != nil {
		report.Connected = s.transport.IsConnected()
		report.LoggedIn = s.transport.IsLoggedIn()
		report.OwnJID = s.transport.OwnJID()
	}
	if report.Connected && report.LoggedIn {
		report.Status = domainHealth.StatusOk
	}
	if s.store != nil {
		report.Groups = s.store.GroupCount()
		report.Contacts = s.store.ContactCount()
	}
	if s.plugins != nil {
		report.Plugins = s.plugins.List()
	}
	if s.scrapers != nil {
		report.Scrapers = s.scrapers.List()
	}
	if s.pool != nil {
		report.WorkerPool = s.pool.GetStats()
	}
	if s.persist != nil {
		report.LastPersist = s.persist.LastPersist()
	}
	return report
}
