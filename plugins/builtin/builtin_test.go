package builtin

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	domainHealth "github.com/AzielCF/az-bot/domains/health"
	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	"github.com/AzielCF/az-bot/domains/transport/mocks"
	infraDatabase "github.com/AzielCF/az-bot/infrastructure/database"
	infraStore "github.com/AzielCF/az-bot/infrastructure/store"
	"github.com/AzielCF/az-bot/integrations/ai"
	"github.com/AzielCF/az-bot/pkg/loader"
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/AzielCF/az-bot/plugins"
	"github.com/AzielCF/az-bot/scrapers"
	_ "github.com/AzielCF/az-bot/scrapers/builtin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	chatJID   = "120363000000000001@g.us"
	senderJID = "6281234567890@s.whatsapp.net"
)

type fakeHealth struct {
	report domainHealth.Report
}

func (f fakeHealth) GetStatus(context.Context) domainHealth.Report { return f.report }

type fakeRegistry struct {
	infos []domainPlugin.Info
}

func (f fakeRegistry) Dispatch(context.Context, *domainMessage.Message) domainPlugin.DispatchReport {
	return domainPlugin.DispatchReport{}
}
func (f fakeRegistry) List() []domainPlugin.Info { return f.infos }
func (f fakeRegistry) Len() int                  { return len(f.infos) }

type fakeProvider struct {
	got   []ai.Request
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(_ context.Context, req ai.Request) (string, error) {
	f.got = append(f.got, req)
	return f.reply, f.err
}

type fakeScraper struct{ res *domainScraper.Result }

func (f fakeScraper) Scrape(context.Context, string) (*domainScraper.Result, error) {
	return f.res, nil
}

func newContext(t *testing.T, tr *mocks.Transport, msg *domainMessage.Message) *plugins.Context {
	t.Helper()
	return &plugins.Context{
		Deps: plugins.Deps{
			Transport: tr,
			Store:     infraStore.NewStore(),
			Config:    &config.Config{AI: config.AIConfig{Provider: "gemini"}},
		},
		Msg:      msg,
		Log:      logrus.NewEntry(logrus.New()),
		Registry: fakeRegistry{},
	}
}

func command(cmd string, args ...string) *domainMessage.Message {
	return &domainMessage.Message{
		Key:       domainMessage.Key{RemoteJID: chatJID, ID: "MSG1", Participant: senderJID},
		Type:      domainMessage.TypeText,
		Sender:    senderJID,
		ChatID:    chatJID,
		IsGroup:   true,
		Timestamp: time.Now(),
		Body:      "." + strings.Join(append([]string{cmd}, args...), " "),
		Prefix:    ".",
		Command:   cmd,
		Args:      args,
		Text:      strings.Join(args, " "),
	}
}

// expectReply captures the text of the next SendText to the chat.
func expectReply(tr *mocks.Transport, out *string) {
	tr.On("SendText", mock.Anything, chatJID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *out = args.String(2) }).
		Return("OUT1", nil).Once()
}

func TestPing(t *testing.T) {
	tr := new(mocks.Transport)
	var reply string
	expectReply(tr, &reply)

	h := &ping{now: func() time.Time { return time.Unix(100, 0) }}
	msg := command("ping")
	msg.Timestamp = time.Unix(99, 500_000_000)

	require.NoError(t, h.Handle(context.Background(), newContext(t, tr, msg)))
	assert.Equal(t, "Pong! 500ms", reply)
	tr.AssertExpectations(t)
}

func TestMenu_GroupsByCategory(t *testing.T) {
	tr := new(mocks.Transport)
	var reply string
	expectReply(tr, &reply)

	pc := newContext(t, tr, command("menu"))
	pc.Registry = fakeRegistry{infos: []domainPlugin.Info{
		{Name: "ping", Category: "tools", Commands: []string{"ping", "p"}, Description: "latency"},
		{Name: "ai", Category: "ai", Commands: []string{"ai"}},
		{Name: "logger"},
	}}

	require.NoError(t, menu{}.Handle(context.Background(), pc))
	assert.True(t, strings.HasPrefix(reply, "*Menu*"))
	assert.Less(t, strings.Index(reply, "*AI*"), strings.Index(reply, "*TOOLS*"))
	assert.Contains(t, reply, "• .ping - latency")
	assert.NotContains(t, reply, "logger")
}

func TestStats(t *testing.T) {
	tr := new(mocks.Transport)
	var reply string
	expectReply(tr, &reply)

	pc := newContext(t, tr, command("stats"))
	pc.Health = fakeHealth{report: domainHealth.Report{
		Status:     domainHealth.StatusOk,
		Version:    "v1.0.0",
		StartedAt:  time.Now().Add(-time.Hour),
		Groups:     1234,
		WorkerPool: msgworker.PoolStats{TotalProcessed: 5000},
	}}

	require.NoError(t, stats{}.Handle(context.Background(), pc))
	assert.Contains(t, reply, "*Groups:* 1,234")
	assert.Contains(t, reply, "*Processed:* 5,000")
	assert.Contains(t, reply, "1 hour ago")
}

func TestRegister(t *testing.T) {
	state := infraDatabase.NewState(infraDatabase.NewJSONRepository(filepath.Join(t.TempDir(), "database.json")))
	require.NoError(t, state.Load(context.Background()))

	tr := new(mocks.Transport)
	var reply string
	tr.On("SendText", mock.Anything, chatJID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reply = args.String(2) }).
		Return("OUT", nil)

	h := &register{now: func() time.Time { return time.UnixMilli(42) }}

	pc := newContext(t, tr, command("register", "Budi.20"))
	pc.DB = state
	require.NoError(t, h.Handle(context.Background(), pc))
	assert.Contains(t, reply, "Registered as *Budi*")

	state.View(func(doc *domainDatabase.Document) {
		user := doc.Users[senderJID]
		require.NotNil(t, user)
		assert.Equal(t, "Budi", user["name"])
		assert.Equal(t, 20, user["age"])
		assert.Equal(t, int64(42), user["regTime"])
	})

	require.NoError(t, h.Handle(context.Background(), pc))
	assert.Equal(t, "You are already registered.", reply)

	pc = newContext(t, tr, command("register", "Budi"))
	pc.DB = state
	require.NoError(t, h.Handle(context.Background(), pc))
	assert.Contains(t, reply, "Usage:")
}

func TestParseRegistration(t *testing.T) {
	name, age, err := parseRegistration(" Sari . 31 ")
	require.NoError(t, err)
	assert.Equal(t, "Sari", name)
	assert.Equal(t, 31, age)

	for _, in := range []string{"", "Sari", "Sari.x", "Sari.200", ".20"} {
		_, _, err := parseRegistration(in)
		assert.Error(t, err, in)
	}
}

func TestGroupInfo(t *testing.T) {
	tr := new(mocks.Transport)
	var (
		reply string
		opts  any
	)
	tr.On("SendText", mock.Anything, chatJID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reply, opts = args.String(2), args.Get(3) }).
		Return("OUT", nil)

	pc := newContext(t, tr, command("groupinfo"))
	require.NoError(t, groupInfo{}.Handle(context.Background(), pc))
	assert.Equal(t, "Group metadata is not cached yet.", reply)

	pc.Store.PutGroup(domainStore.GroupMetadata{
		ID:      chatJID,
		Subject: "Warga",
		Owner:   "111@s.whatsapp.net",
		Participants: []domainStore.Participant{
			{ID: "111@s.whatsapp.net", Admin: domainStore.SuperAdminRole},
			{ID: senderJID},
		},
	})
	require.NoError(t, groupInfo{}.Handle(context.Background(), pc))
	assert.Contains(t, reply, "*Warga*")
	assert.Contains(t, reply, "Members: 2")
	assert.Contains(t, reply, "@111")
	assert.NotNil(t, opts)
}

func TestAI(t *testing.T) {
	tr := new(mocks.Transport)
	var reply string
	tr.On("SendText", mock.Anything, chatJID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reply = args.String(2) }).
		Return("OUT", nil)

	provider := &fakeProvider{reply: "Jakarta"}
	h := &aiChat{
		memory:      ai.NewMemoryStore(4),
		newProvider: func(config.AIConfig) (ai.Provider, error) { return provider, nil },
	}

	pc := newContext(t, tr, command("ai", "capital", "of", "Indonesia?"))
	require.NoError(t, h.Handle(context.Background(), pc))
	assert.Equal(t, "Jakarta", reply)

	require.NoError(t, h.Handle(context.Background(), pc))
	require.Len(t, provider.got, 2)
	assert.Len(t, provider.got[1].History, 2)
	assert.Equal(t, "capital of Indonesia?", provider.got[1].UserText)

	require.NoError(t, h.Handle(context.Background(), newContext(t, tr, command("aireset"))))
	assert.Equal(t, "Conversation cleared.", reply)
	assert.Nil(t, h.memory.Get(chatJID+"|"+senderJID))

	provider.err = errors.New("quota")
	assert.ErrorContains(t, h.Handle(context.Background(), pc), "quota")
}

func TestTitle(t *testing.T) {
	tr := new(mocks.Transport)
	var reply string
	tr.On("SendText", mock.Anything, chatJID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { reply = args.String(2) }).
		Return("OUT", nil)

	reg := scrapers.NewRegistry()
	reg.Add("fake", domainScraper.Manifest{Name: "fake", Hosts: []string{"example.com"}},
		fakeScraper{res: &domainScraper.Result{Title: "Example Domain", SiteName: "IANA"}})

	pc := newContext(t, tr, command("title", "see", "https://example.com/a"))
	pc.Scrapers = reg
	require.NoError(t, title{}.Handle(context.Background(), pc))
	assert.Equal(t, "_IANA_\n*Example Domain*", reply)

	pc = newContext(t, tr, command("title", "https://unknown.org"))
	pc.Scrapers = reg
	require.NoError(t, title{}.Handle(context.Background(), pc))
	assert.Equal(t, "No scraper can read that link.", reply)
}

func TestFactoriesAreLinked(t *testing.T) {
	names := plugins.Factories()
	for _, n := range []string{"ping", "menu", "stats", "register", "groupinfo", "ai", "title"} {
		assert.Contains(t, names, n)
	}
}

func TestShippedManifestsLoad(t *testing.T) {
	r := plugins.NewRegistry(plugins.Deps{})
	loaded, err := r.Load(filepath.Join("..", "..", "assets", "plugins"), nil, loader.Options{Recursive: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ping", "menu", "stats", "register", "groupinfo", "ai", "title"}, loaded)

	s := scrapers.NewRegistry()
	names, err := s.Load(filepath.Join("..", "..", "assets", "scrapers"), nil, loader.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pagemeta"}, names)
}
