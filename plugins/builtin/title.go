package builtin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/plugins"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

type title struct{}

func NewTitle(domainPlugin.Manifest) (plugins.Handler, error) {
	return title{}, nil
}

// Handle scrapes the first link in the message and replies with its summary.
func (title) Handle(ctx context.Context, pc *plugins.Context) error {
	link := urlPattern.FindString(pc.Msg.Text)
	if link == "" && pc.Msg.Quoted != nil {
		link = urlPattern.FindString(pc.Msg.Quoted.Body)
	}
	if link == "" {
		return pc.Reply(ctx, fmt.Sprintf("Usage: %s%s <url>", pc.Msg.Prefix, pc.Msg.Command))
	}
	if pc.Scrapers == nil {
		return fmt.Errorf("title: scrapers unavailable")
	}

	res, err := pc.Scrapers.Scrape(ctx, link)
	var notFound pkgError.NotFoundError
	if errors.As(err, &notFound) {
		return pc.Reply(ctx, "No scraper can read that link.")
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	if res.SiteName != "" {
		fmt.Fprintf(&b, "_%s_\n", res.SiteName)
	}
	fmt.Fprintf(&b, "*%s*", res.Title)
	if res.Description != "" {
		fmt.Fprintf(&b, "\n%s", res.Description)
	}
	return pc.Reply(ctx, b.String())
}
