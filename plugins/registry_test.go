package plugins

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	callsMu sync.Mutex
	calls   []string
)

func record(name string) {
	callsMu.Lock()
	calls = append(calls, name)
	callsMu.Unlock()
}

func takeCalls() []string {
	callsMu.Lock()
	defer callsMu.Unlock()
	out := calls
	calls = nil
	return out
}

func init() {
	Register("test-record", func(m domainPlugin.Manifest) (Handler, error) {
		return HandlerFunc(func(ctx context.Context, pc *Context) error {
			record(pc.Manifest.Name)
			return nil
		}), nil
	})
	Register("test-panic", func(m domainPlugin.Manifest) (Handler, error) {
		return HandlerFunc(func(ctx context.Context, pc *Context) error {
			record(pc.Manifest.Name)
			panic("boom")
		}), nil
	})
	Register("test-fail", func(m domainPlugin.Manifest) (Handler, error) {
		return HandlerFunc(func(ctx context.Context, pc *Context) error {
			record(pc.Manifest.Name)
			return errors.New("handler failed")
		}), nil
	})
	Register("test-broken-factory", func(m domainPlugin.Manifest) (Handler, error) {
		return nil, errors.New("missing setting")
	})
	Register("test-panicking-factory", func(m domainPlugin.Manifest) (Handler, error) {
		var settings map[string]string
		settings["loaded"] = m.Name
		return nil, nil
	})
}

func writeManifest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func textMsg(body, command string) *domainMessage.Message {
	return &domainMessage.Message{
		Key:     domainMessage.Key{RemoteJID: "62811@s.whatsapp.net", ID: "X"},
		Type:    domainMessage.TypeText,
		ChatID:  "62811@s.whatsapp.net",
		Sender:  "62811@s.whatsapp.net",
		Body:    body,
		Prefix:  ".",
		Command: command,
	}
}

func TestLoad_BrokenManifestDoesNotStopOthers(t *testing.T) {
	for _, brokenName := range []string{"0-broken.yaml", "z-broken.yaml"} {
		t.Run(brokenName, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, "alpha.yaml", "name: alpha\nhandler: test-record\ncommands: [alpha]\n")
			writeManifest(t, dir, "sub/beta.yml", "name: beta\nhandler: test-record\ncommands: [beta]\n")
			writeManifest(t, dir, brokenName, "name: broken\nhandler: [not, a, string\n")
			writeManifest(t, dir, "readme.md", "# not a manifest")

			r := NewRegistry(Deps{})
			loaded, err := r.Load(dir, nil, loader.Options{Recursive: true})

			assert.ElementsMatch(t, []string{"alpha", "beta"}, loaded)
			require.Error(t, err)
			var loadErr *pkgError.LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, filepath.Join(dir, brokenName), loadErr.Path)
			assert.Equal(t, 2, r.Len())
		})
	}
}

func TestLoad_PanickingFactoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a-good.yaml", "name: good\nhandler: test-record\ncommands: [good]\n")
	writeManifest(t, dir, "b-crash.yaml", "name: crash\nhandler: test-panicking-factory\n")
	writeManifest(t, dir, "c-good.yaml", "name: after\nhandler: test-record\ncommands: [after]\n")

	r := NewRegistry(Deps{})
	var (
		loaded []string
		err    error
	)
	require.NotPanics(t, func() {
		loaded, err = r.Load(dir, nil, loader.Options{})
	})

	assert.Equal(t, []string{"good", "after"}, loaded)
	require.Error(t, err)
	var loadErr *pkgError.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, filepath.Join(dir, "b-crash.yaml"), loadErr.Path)
	assert.Contains(t, loadErr.Error(), "panic")
	assert.Equal(t, 2, r.Len())
}

func TestLoad_CollectsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.yaml", "name: a\nhandler: nope\n")
	writeManifest(t, dir, "b.yaml", "name: b\nhandler: test-broken-factory\n")
	writeManifest(t, dir, "c.yaml", "name: C!\nhandler: test-record\n")
	writeManifest(t, dir, "d.yaml", "name: d\nhandler: test-record\nunknown_key: 1\n")
	writeManifest(t, dir, "e.yaml", "name: e\nhandler: test-record\ndisabled: true\n")

	r := NewRegistry(Deps{})
	loaded, err := r.Load(dir, nil, loader.Options{})

	assert.Empty(t, loaded)
	require.Error(t, err)
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 4)
	assert.Equal(t, 0, r.Len())
}

func TestLoad_NonRecursiveSkipsSubfolders(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "top.yaml", "name: top\nhandler: test-record\n")
	writeManifest(t, dir, "nested/deep.yaml", "name: deep\nhandler: test-record\n")

	r := NewRegistry(Deps{})
	loaded, err := r.Load(dir, loader.ExtFilter(".yaml"), loader.Options{Recursive: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"top"}, loaded)
}

func TestLoad_SameSourceReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "a.yaml", "name: first\nhandler: test-record\n")
	writeManifest(t, dir, "b.yaml", "name: second\nhandler: test-record\n")

	r := NewRegistry(Deps{})
	_, err := r.Load(dir, nil, loader.Options{})
	require.NoError(t, err)

	writeManifest(t, dir, "a.yaml", "name: renamed\nhandler: test-record\n")
	_, err = r.Load(dir, nil, loader.Options{})
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, path, list[0].Source)
	assert.Equal(t, "renamed", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
}

func TestDispatch_InvokesEveryMatchInOrderAndIsolatesFailures(t *testing.T) {
	r := NewRegistry(Deps{})
	add := func(src, handler string, m domainPlugin.Manifest) {
		factory, ok := lookupFactory(handler)
		require.True(t, ok)
		h, err := factory(m)
		require.NoError(t, err)
		require.NoError(t, r.Add(src, m, h))
	}
	add("1", "test-panic", domainPlugin.Manifest{Name: "panics", Commands: []string{"go"}})
	add("2", "test-fail", domainPlugin.Manifest{Name: "fails", Pattern: "^\\.go"})
	add("3", "test-record", domainPlugin.Manifest{Name: "listener"})
	add("4", "test-record", domainPlugin.Manifest{Name: "other", Commands: []string{"stop"}})
	takeCalls()

	report := r.Dispatch(context.Background(), textMsg(".go now", "go"))

	assert.Equal(t, []string{"panics", "fails", "listener"}, takeCalls())
	assert.Equal(t, []string{"panics", "fails", "listener"}, report.Matched)
	assert.Equal(t, []string{"panics", "fails"}, report.Failed)
	assert.NotEmpty(t, report.TraceID)

	for _, info := range r.List() {
		switch info.Name {
		case "panics", "fails":
			assert.Equal(t, int64(1), info.Failures)
		case "listener":
			assert.Equal(t, int64(1), info.Invocations)
			assert.Equal(t, int64(0), info.Failures)
		}
	}
}

func TestDispatch_NoMatchIsNoop(t *testing.T) {
	r := NewRegistry(Deps{})
	report := r.Dispatch(context.Background(), textMsg("hi", ""))
	assert.Empty(t, report.Matched)
	assert.Empty(t, r.Dispatch(context.Background(), nil).Matched)
}
