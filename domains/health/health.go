package health

import (
	"context"
	"time"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	"github.com/AzielCF/az-bot/pkg/msgworker"
)

type Status string

const (
	StatusOk       Status = "OK"
	StatusDegraded Status = "DEGRADED"
)

type Report struct {
	Status      Status               `json:"status"`
	Version     string               `json:"version"`
	Uptime      string               `json:"uptime"`
	StartedAt   time.Time            `json:"started_at"`
	Connected   bool                 `json:"connected"`
	LoggedIn    bool                 `json:"logged_in"`
	OwnJID      string               `json:"own_jid,omitempty"`
	Groups      int                  `json:"groups"`
	Contacts    int                  `json:"contacts"`
	Plugins     []domainPlugin.Info  `json:"plugins"`
	Scrapers    []domainScraper.Info `json:"scrapers"`
	WorkerPool  msgworker.PoolStats  `json:"worker_pool"`
	LastPersist *time.Time           `json:"last_persist,omitempty"`
}

type IHealthUsecase interface {
	GetStatus(ctx context.Context) Report
}
