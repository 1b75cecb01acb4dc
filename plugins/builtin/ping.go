package builtin

import (
	"context"
	"fmt"
	"time"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/plugins"
)

type ping struct {
	now func() time.Time
}

func NewPing(domainPlugin.Manifest) (plugins.Handler, error) {
	return &ping{now: time.Now}, nil
}

// Handle answers with the delay between the message timestamp and now.
func (p *ping) Handle(ctx context.Context, pc *plugins.Context) error {
	latency := time.Duration(0)
	if !pc.Msg.Timestamp.IsZero() {
		latency = p.now().Sub(pc.Msg.Timestamp)
		if latency < 0 {
			latency = 0
		}
	}
	return pc.Reply(ctx, fmt.Sprintf("Pong! %s", latency.Round(time.Millisecond)))
}
