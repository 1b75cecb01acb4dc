package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AzielCF/az-bot/core/config"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	pairingDelay   = 3 * time.Second
	minBackoff     = 2 * time.Second
	maxBackoff     = time.Minute
	stableDuration = 2 * time.Minute
)

// Manager owns the WhatsApp session and re-runs the startup sequence
// whenever the session is lost.
type Manager struct {
	cfg       *config.Config
	transport *Transport
	store     domainStore.IStore
	sink      MessageSink
	hub       Broadcaster
}

func NewManager(cfg *config.Config, transport *Transport, st domainStore.IStore, sink MessageSink, hub Broadcaster) *Manager {
	return &Manager{
		cfg:       cfg,
		transport: transport,
		store:     st,
		sink:      sink,
		hub:       hub,
	}
}

// Run keeps a session alive until ctx ends. Every failure tears the client
// down and starts over after a growing delay.
func (m *Manager) Run(ctx context.Context) error {
	m.resolveVersion(ctx)

	b := newRestartBackoff()
	attempt := 0
	op := func() error {
		started := time.Now()
		err := m.runSession(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if time.Since(started) > stableDuration {
			b.Reset()
			attempt = 0
		}
		if err == nil {
			err = pkgError.ErrSessionLost
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		attempt++
		logrus.WithError(err).Warnf("[WHATSAPP] Session ended, restarting in %s (attempt %d)", delay, attempt)
		m.publish("RECONNECTING", fmt.Sprintf("Restarting session in %s", delay), attempt)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Manager) runSession(ctx context.Context) error {
	level := m.logLevel()
	container, err := openContainer(ctx, m.cfg.Whatsapp.DBURI, NewLogger("Database", level))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer container.Close()

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("get device: %w", err)
	}
	if device == nil {
		device = container.NewDevice()
	}
	m.configureDeviceProps()

	client := whatsmeow.NewClient(device, NewLogger("Client", level))
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true

	s := &session{ctx: ctx, client: client, restart: make(chan error, 1)}
	client.AddEventHandler(func(evt any) { m.handleEvent(s, evt) })

	m.transport.setClient(client)
	defer func() {
		client.Disconnect()
		m.transport.setClient(nil)
	}()

	if client.Store.ID == nil {
		m.store.Reset()
		if err := m.login(ctx, s); err != nil {
			return err
		}
	} else {
		if err := m.store.Load(m.cfg.Session.GroupMetadataPath(), m.cfg.Session.ContactsPath()); err != nil {
			logrus.WithError(err).Warn("[STORE] Warm start incomplete")
		}
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-s.restart:
		return err
	}
}

// login links a new device, by pairing code when a number is configured and
// by QR code otherwise.
func (m *Manager) login(ctx context.Context, s *session) error {
	client := s.client
	phone := utils.OnlyDigits(m.cfg.Session.PairingNumber)
	if phone == "" {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go m.watchQR(s, qrChan)
		return nil
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pairingDelay):
	}
	code, err := client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return fmt.Errorf("pair phone: %w", err)
	}
	code = utils.FormatPairingCode(code)
	logrus.Infof("[WHATSAPP] Pairing code for %s: %s", phone, code)
	m.publish("PAIRING_CODE", "Enter this code on your phone", code)
	return nil
}

// watchQR relays QR codes until the device is linked. Any other outcome ends
// the session so Run starts a fresh login.
func (m *Manager) watchQR(s *session, ch <-chan whatsmeow.QRChannelItem) {
	for evt := range ch {
		switch evt.Event {
		case whatsmeow.QRChannelEventCode:
			logrus.Infof("[WHATSAPP] Scan QR code (valid %s): %s", evt.Timeout, evt.Code)
			m.publish("QR_CODE", "Scan this QR code", evt.Code)
		case whatsmeow.QRChannelSuccess.Event:
			logrus.Info("[WHATSAPP] QR code scanned, device linked")
			return
		case whatsmeow.QRChannelEventError:
			logrus.WithError(evt.Error).Error("[WHATSAPP] QR pairing failed")
			s.fail(fmt.Errorf("%w: qr pairing failed: %v", pkgError.ErrSessionLost, evt.Error))
			return
		default:
			logrus.Warnf("[WHATSAPP] QR login ended: %s", evt.Event)
			s.fail(fmt.Errorf("%w: qr login ended with %s", pkgError.ErrSessionLost, evt.Event))
			return
		}
	}
}

func (m *Manager) resolveVersion(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	latest, err := whatsmeow.GetLatestVersion(ctx, &http.Client{Timeout: 15 * time.Second})
	if err != nil || latest == nil {
		logrus.WithError(err).Warnf("[WHATSAPP] Using bundled web version %s", store.GetWAVersion())
		return
	}
	store.SetWAVersion(*latest)
	logrus.Infof("[WHATSAPP] Using web version %s", latest)
}

func (m *Manager) configureDeviceProps() {
	osName := fmt.Sprintf("%s %s", m.cfg.App.OS, m.cfg.App.Version)
	platform := m.cfg.App.Platform
	store.DeviceProps.PlatformType = &platform
	store.DeviceProps.Os = &osName
}

func (m *Manager) logLevel() string {
	if m.cfg.App.Debug {
		return "DEBUG"
	}
	return m.cfg.Whatsapp.LogLevel
}

func (m *Manager) publish(code, message string, result any) {
	if m.hub != nil {
		m.hub.Publish(code, message, result)
	}
}

func openContainer(ctx context.Context, uri string, log waLog.Logger) (*sqlstore.Container, error) {
	if strings.HasPrefix(uri, "postgres:") {
		return sqlstore.New(ctx, "postgres", uri, log)
	}
	return sqlstore.New(ctx, "sqlite3", uri, log)
}

// newRestartBackoff doubles from minBackoff up to maxBackoff and never gives up.
func newRestartBackoff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     minBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
