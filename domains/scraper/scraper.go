package scraper

import (
	"context"
	"time"
)

// Manifest is the YAML description of a scraper.
type Manifest struct {
	Name     string         `yaml:"name" json:"name"`
	Handler  string         `yaml:"handler" json:"handler"`
	Hosts    []string       `yaml:"hosts" json:"hosts"`
	Timeout  time.Duration  `yaml:"timeout" json:"timeout,omitempty"`
	Settings map[string]any `yaml:"settings" json:"settings,omitempty"`
}

type Result struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	SiteName    string            `json:"site_name,omitempty"`
	Image       string            `json:"image,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

type IScraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
}

type Info struct {
	Source string   `json:"source"`
	Name   string   `json:"name"`
	Hosts  []string `json:"hosts"`
}

type IRegistry interface {
	Find(url string) []Info
	Scrape(ctx context.Context, url string) (*Result, error)
	List() []Info
	Len() int
}
