package usecase

import (
	"context"
	"fmt"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/AzielCF/az-bot/pkg/dedup"
	"github.com/AzielCF/az-bot/pkg/emoji"
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/AzielCF/az-bot/serializer"
	"github.com/sirupsen/logrus"
)

type PipelineOptions struct {
	StatusRead  bool
	StatusReact bool
	Serializer  serializer.Options
}

// PipelineService turns inbound transport batches into registry dispatches.
type PipelineService struct {
	transport  domainTransport.ITransport
	store      domainStore.IStore
	dispatcher domainPlugin.IDispatcher
	dedup      dedup.Store
	pool       *msgworker.MessageWorkerPool
	opts       PipelineOptions

	pickEmoji func() string
}

func NewPipelineService(
	transport domainTransport.ITransport,
	store domainStore.IStore,
	dispatcher domainPlugin.IDispatcher,
	dd dedup.Store,
	pool *msgworker.MessageWorkerPool,
	opts PipelineOptions,
) *PipelineService {
	return &PipelineService{
		transport:  transport,
		store:      store,
		dispatcher: dispatcher,
		dedup:      dd,
		pool:       pool,
		opts:       opts,
		pickEmoji:  emoji.Random,
	}
}

// Enqueue schedules Handle on the chat's worker lane and returns at once. A
// chat whose lane is full loses the message; other chats are unaffected.
func (p *PipelineService) Enqueue(ctx context.Context, upsert domainMessage.Upsert) error {
	evt := upsert.First()
	if evt == nil || evt.Message == nil {
		return nil
	}
	if p.pool == nil {
		return p.Handle(ctx, upsert)
	}
	return p.pool.Dispatch(msgworker.MessageJob{
		ChatJID:   evt.Info.Chat.String(),
		MessageID: string(evt.Info.ID),
		Handler: func(jobCtx context.Context) error {
			return p.Handle(jobCtx, upsert)
		},
	})
}

// Handle processes the first message of upsert. Only the registry decides
// what a message means; the pipeline itself reacts to status updates.
func (p *PipelineService) Handle(ctx context.Context, upsert domainMessage.Upsert) error {
	evt := upsert.First()
	if evt == nil || evt.Message == nil {
		return nil
	}

	if p.dedup != nil {
		seen, err := p.dedup.Seen(ctx, dedup.Key(evt.Info.Chat.String(), string(evt.Info.ID)))
		if err != nil {
			logrus.WithError(err).Warn("[PIPELINE] Dedup lookup failed, processing anyway")
		} else if seen {
			logrus.Debugf("[PIPELINE] Dropping duplicate %s", evt.Info.ID)
			return nil
		}
	}

	if err := p.store.EnsureGroups(ctx, p.transport.FetchAllGroups); err != nil {
		logrus.WithError(err).Warn("[PIPELINE] Group metadata refresh failed")
	}

	msg := serializer.Serialize(ctx, p.transport, evt, p.store, p.opts.Serializer)
	if msg == nil {
		return nil
	}

	if msg.IsStatus && !msg.Key.FromMe {
		if msg.IsRevoke() {
			return nil
		}
		p.handleStatus(ctx, msg)
	}

	report := p.dispatcher.Dispatch(ctx, msg)
	if len(report.Matched) > 0 {
		logrus.WithFields(logrus.Fields{
			"trace":   report.TraceID,
			"chat":    msg.ChatID,
			"matched": report.Matched,
			"failed":  report.Failed,
		}).Debug("[PIPELINE] Dispatched")
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d plugin(s) failed: %v", len(report.Failed), report.Failed)
	}
	return nil
}

// handleStatus marks a status update as read and reacts to it. Failures are
// logged and never stop the dispatch that follows.
func (p *PipelineService) handleStatus(ctx context.Context, msg *domainMessage.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Errorf("[PIPELINE] Status handling panic: %v", rec)
		}
	}()

	if p.opts.StatusRead {
		if err := p.transport.MarkRead(ctx, msg.Key); err != nil {
			logrus.WithError(err).Warnf("[PIPELINE] Failed to read status %s", msg.Key.ID)
		}
	}

	name := p.transport.GetName(ctx, msg.Sender)
	logrus.Infof("[PIPELINE] Status from %s", name)

	if p.opts.StatusReact {
		reaction := p.pickEmoji()
		if err := p.transport.SendStatusReaction(ctx, msg.Key, reaction, []string{msg.Key.Participant}); err != nil {
			logrus.WithError(err).Warnf("[PIPELINE] Failed to react to status of %s", name)
		}
	}
}
