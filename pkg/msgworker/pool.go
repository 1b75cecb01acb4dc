package msgworker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPoolStopped is returned when a job is offered to a stopped pool.
	ErrPoolStopped = errors.New("message worker pool stopped")
	// ErrLaneFull is returned when a chat already has queueSize jobs waiting.
	ErrLaneFull = errors.New("message worker lane full")
)

// MessageJob is one unit of inbound-message work. Jobs of the same chat run
// one at a time, in the order they were queued.
type MessageJob struct {
	ChatJID   string
	MessageID string
	Handler   func(ctx context.Context) error
}

// PoolStats is a point-in-time view of the pool, served on /healthz.
type PoolStats struct {
	NumWorkers      int            `json:"num_workers"`
	QueueSize       int            `json:"queue_size"`
	ActiveWorkers   int            `json:"active_workers"`
	ActiveLanes     int            `json:"active_lanes"`
	TotalDispatched int64          `json:"total_dispatched"`
	TotalProcessed  int64          `json:"total_processed"`
	TotalDropped    int64          `json:"total_dropped"`
	TotalErrors     int64          `json:"total_errors"`
	ActiveChats     map[string]int `json:"active_chats"`
}

// lane is the serial queue of one chat. It lives while it has work and is
// retired by its goroutine once empty.
type lane struct {
	chatJID string
	queue   []MessageJob
}

// MessageWorkerPool gives every chat its own lane. A slow or hung job only
// holds back later jobs of its own chat; other chats keep running, at most
// numWorkers handlers at a time.
type MessageWorkerPool struct {
	numWorkers int
	queueSize  int
	slots      chan struct{}

	mu      sync.Mutex
	lanes   map[string]*lane
	stopped bool
	wg      sync.WaitGroup

	jobCtx     context.Context
	cancelJobs context.CancelFunc

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

func NewMessageWorkerPool(numWorkers, queueSize int) *MessageWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	return &MessageWorkerPool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		slots:      make(chan struct{}, numWorkers),
		lanes:      make(map[string]*lane),
		jobCtx:     jobCtx,
		cancelJobs: cancel,
	}
}

// Start sets the context jobs run with. Only its values are kept: jobs are
// cancelled by Stop, not by ctx, so queued work still drains on shutdown.
func (p *MessageWorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	p.cancelJobs()
	p.jobCtx, p.cancelJobs = context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Unlock()

	logrus.Infof("[MSG_WORKER_POOL] Started with %d workers, lane size: %d", p.numWorkers, p.queueSize)
}

// Dispatch queues job on its chat's lane without blocking. It fails when the
// pool is stopped or the chat already has a full backlog.
func (p *MessageWorkerPool) Dispatch(job MessageJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		atomic.AddInt64(&p.totalDropped, 1)
		return ErrPoolStopped
	}

	l, ok := p.lanes[job.ChatJID]
	if ok && len(l.queue) >= p.queueSize {
		atomic.AddInt64(&p.totalDropped, 1)
		logrus.Warnf("[MSG_WORKER_POOL] Lane for %s is full, dropping %s", job.ChatJID, job.MessageID)
		return ErrLaneFull
	}

	atomic.AddInt64(&p.totalDispatched, 1)
	if ok {
		l.queue = append(l.queue, job)
		return nil
	}

	l = &lane{chatJID: job.ChatJID, queue: []MessageJob{job}}
	p.lanes[job.ChatJID] = l
	p.wg.Add(1)
	go p.runLane(l, p.jobCtx)
	return nil
}

func (p *MessageWorkerPool) runLane(l *lane, ctx context.Context) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(l.queue) == 0 {
			delete(p.lanes, l.chatJID)
			p.mu.Unlock()
			return
		}
		job := l.queue[0]
		l.queue = l.queue[1:]
		p.mu.Unlock()

		p.slots <- struct{}{}
		p.process(ctx, job)
		<-p.slots
	}
}

func (p *MessageWorkerPool) process(ctx context.Context, job MessageJob) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			logrus.Errorf("[MSG_WORKER_POOL] Panic for %s/%s: %v", job.ChatJID, job.MessageID, r)
		}
		atomic.AddInt64(&p.totalProcessed, 1)
	}()

	if err := job.Handler(ctx); err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
		logrus.WithError(err).Errorf("[MSG_WORKER_POOL] Job failed for %s/%s", job.ChatJID, job.MessageID)
	}
}

// Stop refuses new jobs and waits until every queued job has run.
func (p *MessageWorkerPool) Stop() {
	_ = p.StopWithTimeout(0)
}

// StopWithTimeout is Stop bounded by timeout (0 waits forever). When the
// lanes do not drain in time, running jobs see their context cancelled and
// context.DeadlineExceeded is returned.
func (p *MessageWorkerPool) StopWithTimeout(timeout time.Duration) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	logrus.Info("[MSG_WORKER_POOL] Stopping, draining lanes...")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
		p.cancelJobs()
		logrus.Info("[MSG_WORKER_POOL] All lanes drained")
		return nil
	case <-expired:
		p.cancelJobs()
		logrus.Warnf("[MSG_WORKER_POOL] Lanes still busy after %s, cancelling jobs", timeout)
		return context.DeadlineExceeded
	}
}

func (p *MessageWorkerPool) GetStats() PoolStats {
	p.mu.Lock()
	activeChats := make(map[string]int, len(p.lanes))
	for chat, l := range p.lanes {
		activeChats[chat] = len(l.queue)
	}
	p.mu.Unlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   len(p.slots),
		ActiveLanes:     len(activeChats),
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		ActiveChats:     activeChats,
	}
}
