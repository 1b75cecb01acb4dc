package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	"github.com/AzielCF/az-bot/domains/transport/mocks"
	infraStore "github.com/AzielCF/az-bot/infrastructure/store"
	"github.com/AzielCF/az-bot/pkg/dedup"
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/AzielCF/az-bot/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

const (
	botJID  = "62800@s.whatsapp.net"
	userJID = "62811@s.whatsapp.net"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []*domainMessage.Message
	seen chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{seen: make(chan struct{}, 16)}
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg *domainMessage.Message) domainPlugin.DispatchReport {
	d.mu.Lock()
	d.msgs = append(d.msgs, msg)
	d.mu.Unlock()
	d.seen <- struct{}{}
	return domainPlugin.DispatchReport{TraceID: "t"}
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

func textEvent(id, chat string, msg *waE2E.Message) *events.Message {
	chatJID, _ := types.ParseJID(chat)
	user, _ := types.ParseJID(userJID)
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: chatJID, Sender: user},
			ID:            types.MessageID(id),
			Timestamp:     time.Now(),
		},
		Message: msg,
	}
}

func statusEvent(id string, msg *waE2E.Message) *events.Message {
	return textEvent(id, types.StatusBroadcastJID.String(), msg)
}

func conversation(text string) *waE2E.Message {
	return &waE2E.Message{Conversation: proto.String(text)}
}

func newPipeline(t *testing.T, opts PipelineOptions) (*PipelineService, *mocks.Transport, *recordingDispatcher) {
	t.Helper()
	tr := new(mocks.Transport)
	tr.On("OwnJID").Return(botJID).Maybe()
	tr.On("FetchAllGroups", mock.Anything).Return(map[string]domainStore.GroupMetadata{
		"120363@g.us": {ID: "120363@g.us", Subject: "Warga"},
	}, nil).Maybe()

	disp := newRecordingDispatcher()
	opts.Serializer = serializer.Options{Prefixes: []string{"."}}
	dd := dedup.NewMemoryStore(time.Minute)
	t.Cleanup(dd.Close)
	p := NewPipelineService(tr, infraStore.NewStore(), disp, dd, nil, opts)
	p.pickEmoji = func() string { return "🔥" }
	return p, tr, disp
}

func TestHandle_EmptyPayloadIsNoop(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{})

	require.NoError(t, p.Handle(context.Background(), domainMessage.Upsert{}))
	require.NoError(t, p.Handle(context.Background(), domainMessage.Upsert{Messages: []*events.Message{nil}}))
	require.NoError(t, p.Handle(context.Background(), domainMessage.Upsert{Messages: []*events.Message{textEvent("A", userJID, nil)}}))

	assert.Zero(t, disp.count())
	tr.AssertNotCalled(t, "FetchAllGroups", mock.Anything)
}

func TestHandle_OnlyFirstMessageIsConsidered(t *testing.T) {
	p, _, disp := newPipeline(t, PipelineOptions{})
	up := domainMessage.Upsert{Messages: []*events.Message{
		textEvent("A", userJID, conversation("first")),
		textEvent("B", userJID, conversation("second")),
	}}

	require.NoError(t, p.Handle(context.Background(), up))
	require.Equal(t, 1, disp.count())
	assert.Equal(t, "first", disp.msgs[0].Body)
}

func TestHandle_DropsReplayedDelivery(t *testing.T) {
	p, _, disp := newPipeline(t, PipelineOptions{})
	up := domainMessage.Upsert{Messages: []*events.Message{textEvent("A", userJID, conversation(".ping"))}}

	require.NoError(t, p.Handle(context.Background(), up))
	require.NoError(t, p.Handle(context.Background(), up))
	assert.Equal(t, 1, disp.count())
}

func TestHandle_FetchesGroupsOnceWhenCacheEmpty(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{})

	for _, id := range []string{"A", "B", "C"} {
		up := domainMessage.Upsert{Messages: []*events.Message{textEvent(id, "120363@g.us", conversation("hi"))}}
		require.NoError(t, p.Handle(context.Background(), up))
	}

	tr.AssertNumberOfCalls(t, "FetchAllGroups", 1)
	require.Equal(t, 3, disp.count())
	assert.Equal(t, "Warga", disp.msgs[2].GroupName)
}

func TestHandle_StatusIsReadReactedThenDispatched(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{StatusRead: true, StatusReact: true})
	tr.On("MarkRead", mock.Anything, mock.MatchedBy(func(k domainMessage.Key) bool {
		return k.ID == "S1" && k.Participant == userJID && k.RemoteJID == types.StatusBroadcastJID.String()
	})).Return(nil).Once()
	tr.On("GetName", mock.Anything, userJID).Return("Budi").Once()
	tr.On("SendStatusReaction", mock.Anything, mock.Anything, "🔥", []string{userJID}).Return(nil).Once()

	up := domainMessage.Upsert{Messages: []*events.Message{statusEvent("S1", conversation("holiday!"))}}
	require.NoError(t, p.Handle(context.Background(), up))

	tr.AssertExpectations(t)
	require.Equal(t, 1, disp.count())
	assert.True(t, disp.msgs[0].IsStatus)
}

func TestHandle_StatusRevokeIsTerminal(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{StatusRead: true, StatusReact: true})
	revoke := &waE2E.Message{ProtocolMessage: &waE2E.ProtocolMessage{Type: waE2E.ProtocolMessage_REVOKE.Enum()}}

	up := domainMessage.Upsert{Messages: []*events.Message{statusEvent("S2", revoke)}}
	require.NoError(t, p.Handle(context.Background(), up))

	tr.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	tr.AssertNotCalled(t, "SendStatusReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, disp.count())
}

func TestHandle_StatusReactionFailureStillDispatches(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{StatusRead: true, StatusReact: true})
	tr.On("MarkRead", mock.Anything, mock.Anything).Return(errors.New("offline")).Once()
	tr.On("GetName", mock.Anything, userJID).Return("Budi").Once()
	tr.On("SendStatusReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("rate limited")).Once()

	up := domainMessage.Upsert{Messages: []*events.Message{statusEvent("S3", conversation("x"))}}
	require.NoError(t, p.Handle(context.Background(), up))

	tr.AssertExpectations(t)
	assert.Equal(t, 1, disp.count())
}

func TestHandle_StatusToggles(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{})
	tr.On("GetName", mock.Anything, userJID).Return("Budi").Once()

	up := domainMessage.Upsert{Messages: []*events.Message{statusEvent("S4", conversation("x"))}}
	require.NoError(t, p.Handle(context.Background(), up))

	tr.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	tr.AssertNotCalled(t, "SendStatusReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, disp.count())
}

func TestHandle_OwnStatusSkipsStatusHandling(t *testing.T) {
	p, tr, disp := newPipeline(t, PipelineOptions{StatusRead: true, StatusReact: true})
	evt := statusEvent("S5", conversation("mine"))
	evt.Info.IsFromMe = true

	require.NoError(t, p.Handle(context.Background(), domainMessage.Upsert{Messages: []*events.Message{evt}}))

	tr.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	assert.Equal(t, 1, disp.count())
}

func TestEnqueue_RunsOnWorkerPool(t *testing.T) {
	p, _, disp := newPipeline(t, PipelineOptions{})
	pool := msgworker.NewMessageWorkerPool(2, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()
	p.pool = pool

	require.NoError(t, p.Enqueue(ctx, domainMessage.Upsert{Messages: []*events.Message{textEvent("Q1", userJID, conversation("hi"))}}))
	require.NoError(t, p.Enqueue(ctx, domainMessage.Upsert{}))

	select {
	case <-disp.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not dispatched")
	}
	assert.Equal(t, 1, disp.count())
}

// gatedDispatcher blocks every message of one chat until release is closed.
type gatedDispatcher struct {
	*recordingDispatcher
	chat    string
	release chan struct{}
}

func (d *gatedDispatcher) Dispatch(ctx context.Context, msg *domainMessage.Message) domainPlugin.DispatchReport {
	if msg.ChatID == d.chat {
		<-d.release
	}
	return d.recordingDispatcher.Dispatch(ctx, msg)
}

func TestEnqueue_HungChatDoesNotStallOtherChats(t *testing.T) {
	const hungChat = "62899@s.whatsapp.net"

	p, _, _ := newPipeline(t, PipelineOptions{})
	disp := &gatedDispatcher{recordingDispatcher: newRecordingDispatcher(), chat: hungChat, release: make(chan struct{})}
	p.dispatcher = disp

	pool := msgworker.NewMessageWorkerPool(2, 2)
	pool.Start(context.Background())
	p.pool = pool

	ctx := context.Background()
	hungEvent := func(i int) domainMessage.Upsert {
		return domainMessage.Upsert{Messages: []*events.Message{
			textEvent(fmt.Sprintf("H%d", i), hungChat, conversation("stuck")),
		}}
	}
	require.NoError(t, p.Enqueue(ctx, hungEvent(0)))
	require.Eventually(t, func() bool { return pool.GetStats().ActiveWorkers == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	for i := 1; i < 6; i++ {
		// Two wait behind the hung one, the rest are dropped.
		_ = p.Enqueue(ctx, hungEvent(i))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "Enqueue must not block on a busy chat")

	require.NoError(t, p.Enqueue(ctx, domainMessage.Upsert{Messages: []*events.Message{
		textEvent("OK1", userJID, conversation("hello")),
	}}))

	select {
	case <-disp.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("other chat was not dispatched while one chat hung")
	}
	disp.mu.Lock()
	assert.Equal(t, userJID, disp.msgs[0].ChatID)
	disp.mu.Unlock()

	close(disp.release)
	pool.Stop()
	assert.Equal(t, 4, disp.count())
	assert.Equal(t, int64(3), pool.GetStats().TotalDropped)
}
