package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "bitchat/internal/domain"
)

// ErrShuttingDown is returned by Enqueue once the pipeline has been
// stopped; in-flight sends are allowed to finish.
var ErrShuttingDown = errors.New("conversation: send pipeline is shutting down")

// queueCapacity bounds each peer's queue; beyond it Enqueue reports
// Backpressure rather than growing without limit, per spec.md §5.
const queueCapacity = 256

// SendRequest is the single-writer input accepted by SendPipeline
// (spec.md §4.5.5).
type SendRequest struct {
	Content           string
	PeerAddr          domain.PeerAddress
	RecipientNickname string
	SenderNickname    string
	MyPeerAddr        domain.PeerAddress
	EmitCallback      func(content string, peerAddr domain.PeerAddress, recipientNickname, id string) error
}

// SendPipeline serializes all outbound sends for a peer through one FIFO
// queue; concurrent peers are served in parallel, each by its own
// worker goroutine.
type SendPipeline struct {
	engine *Engine

	mu      sync.Mutex
	queues  map[domain.PeerAddress]chan sendJob
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type sendJob struct {
	id  string
	req SendRequest
}

// NewSendPipeline wires a SendPipeline over engine, which owns the
// conversations map the pipeline inserts into.
func NewSendPipeline(engine *Engine) *SendPipeline {
	return &SendPipeline{
		engine:  engine,
		queues:  make(map[domain.PeerAddress]chan sendJob),
		closeCh: make(chan struct{}),
	}
}

// Enqueue produces a fresh Sending message, inserts it into the
// conversation so the UI sees it immediately, then queues req for
// asynchronous delivery via EmitCallback. Returns the message id.
func (p *SendPipeline) Enqueue(req SendRequest) (string, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", ErrShuttingDown
	}
	queue, ok := p.queues[req.PeerAddr]
	if !ok {
		queue = make(chan sendJob, queueCapacity)
		p.queues[req.PeerAddr] = queue
		p.wg.Add(1)
		go p.worker(queue)
	}
	p.mu.Unlock()

	id := uuid.NewString()
	msg := domain.Message{
		ID:                id,
		SenderDisplay:     req.SenderNickname,
		Content:           req.Content,
		Timestamp:         time.Now(),
		IsPrivate:         true,
		RecipientNickname: req.RecipientNickname,
		Status:            domain.Sending(),
	}
	p.engine.Insert(req.PeerAddr, msg)
	p.engine.persist(context.Background(), req.PeerAddr, msg)

	select {
	case queue <- sendJob{id: id, req: req}:
		return id, nil
	default:
		return id, errBackpressure(req.PeerAddr)
	}
}

// SendPrivate builds a SendRequest for a private message to addr and
// enqueues it, wiring EmitCallback to the engine's Sender capability so
// callers never need to touch the engine's transport internals directly.
func (p *SendPipeline) SendPrivate(addr domain.PeerAddress, content, recipientNickname, senderNickname string) (string, error) {
	return p.Enqueue(SendRequest{
		Content:           content,
		PeerAddr:          addr,
		RecipientNickname: recipientNickname,
		SenderNickname:    senderNickname,
		EmitCallback: func(content string, peerAddr domain.PeerAddress, recipientNickname, id string) error {
			if p.engine.sender == nil {
				return nil
			}
			return p.engine.sender.SendPrivate(content, peerAddr, recipientNickname, id)
		},
	})
}

// UpdateStatus applies a monotone delivery-status transition to a
// message by id, ignoring any transition Advances rejects.
func (p *SendPipeline) UpdateStatus(ctx context.Context, addr domain.PeerAddress, id string, status domain.DeliveryStatus) {
	p.engine.applyStatus(addr, id, status)
}

// worker processes one peer's queue strictly sequentially until the
// pipeline is closed and the queue drains.
func (p *SendPipeline) worker(queue chan sendJob) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-queue:
			if !ok {
				return
			}
			p.process(job)
		case <-p.closeCh:
			// Drain whatever is already queued, then exit; no new
			// Enqueue calls can reach this channel after closed is set.
			for {
				select {
				case job := <-queue:
					p.process(job)
				default:
					return
				}
			}
		}
	}
}

func (p *SendPipeline) process(job sendJob) {
	if job.req.EmitCallback == nil {
		return
	}
	_ = job.req.EmitCallback(job.req.Content, job.req.PeerAddr, job.req.RecipientNickname, job.id)
}

// Shutdown cancels the pipeline: no further Enqueue calls succeed, but
// requests already queued are allowed to finish.
func (p *SendPipeline) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.closeCh)
	p.mu.Unlock()
	p.wg.Wait()
}

type backpressureError struct{ peer domain.PeerAddress }

func (e backpressureError) Error() string { return "conversation: send queue saturated for " + string(e.peer) }

func errBackpressure(peer domain.PeerAddress) error { return backpressureError{peer: peer} }
