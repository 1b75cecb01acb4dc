package builtin

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/plugins"
	"github.com/dustin/go-humanize"
)

type stats struct{}

func NewStats(domainPlugin.Manifest) (plugins.Handler, error) {
	return stats{}, nil
}

func (stats) Handle(ctx context.Context, pc *plugins.Context) error {
	if pc.Health == nil {
		return fmt.Errorf("stats: health reporter unavailable")
	}
	report := pc.Health.GetStatus(ctx)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var b strings.Builder
	fmt.Fprintf(&b, "*Status:* %s\n", report.Status)
	fmt.Fprintf(&b, "*Version:* %s\n", report.Version)
	fmt.Fprintf(&b, "*Started:* %s (%s)\n", humanize.Time(report.StartedAt), report.Uptime)
	fmt.Fprintf(&b, "*Groups:* %s\n", humanize.Comma(int64(report.Groups)))
	fmt.Fprintf(&b, "*Contacts:* %s\n", humanize.Comma(int64(report.Contacts)))
	fmt.Fprintf(&b, "*Plugins:* %d  *Scrapers:* %d\n", len(report.Plugins), len(report.Scrapers))
	fmt.Fprintf(&b, "*Processed:* %s (errors %s)\n",
		humanize.Comma(report.WorkerPool.TotalProcessed), humanize.Comma(report.WorkerPool.TotalErrors))
	fmt.Fprintf(&b, "*Memory:* %s", humanize.Bytes(mem.Alloc))
	if report.LastPersist != nil {
		fmt.Fprintf(&b, "\n*Saved:* %s", humanize.Time(*report.LastPersist))
	}
	return pc.Reply(ctx, b.String())
}
