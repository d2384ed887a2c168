package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("ingest queue full")

// Op is one queued protocol event: a category tag plus the raw JSON body
// received from the transport. Payload may be backed by a pooled buffer;
// consumers must call Item.Done() when finished.
type Op struct {
	Category Category
	Payload  []byte
	// CorrID ties the event to its log lines across the pipeline.
	CorrID string
	// EnqSeq is a monotonic enqueue sequence assigned when the op is
	// accepted. Events with the same category are dispatched in EnqSeq
	// order.
	EnqSeq uint64
}

// Item wraps an Op and owns a pooled ByteBuffer if one was used. Consumers
// MUST call Done() exactly once after processing.
type Item struct {
	Op *Op

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// maxPooledBuffer bounds the buffer size returned to the pool so oversized
// payloads do not pin resident memory.
var maxPooledBuffer = 256 * 1024

// Done releases pooled resources back to their pools.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			if cap(it.buf.B) > maxPooledBuffer {
				it.buf = nil
			} else {
				bytebufferpool.Put(it.buf)
				it.buf = nil
			}
		}
		if it.Op != nil {
			it.Op.Payload = nil
			opPool.Put(it.Op)
			it.Op = nil
		}
		itemPool.Put(it)
	})
}

var opPool = sync.Pool{New: func() any { return &Op{} }}
var itemPool = sync.Pool{New: func() any { return &Item{} }}

var enqSeq uint64

// Queue is a bounded in-memory queue between the transport-facing surface
// and the dispatcher. Safe for concurrent producers; consumers range over
// Out().
type Queue struct {
	ch       chan *Item
	capacity int
	dropped  uint64
}

// NewQueue creates a bounded Queue. Non-positive capacities fall back to a
// default.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{ch: make(chan *Item, capacity), capacity: capacity}
}

// Out returns the consumer side of the queue. Do not close it.
func (q *Queue) Out() <-chan *Item { return q.ch }

// Dropped reports how many enqueue attempts were rejected at capacity.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }

func (q *Queue) prepare(op *Op) (*Item, *bytebufferpool.ByteBuffer) {
	newOp := opPool.Get().(*Op)
	*newOp = *op
	newOp.EnqSeq = atomic.AddUint64(&enqSeq, 1)

	var bb *bytebufferpool.ByteBuffer
	if len(op.Payload) > 0 {
		bb = bytebufferpool.Get()
		bb.B = append(bb.B[:0], op.Payload...)
		newOp.Payload = bb.B[:len(op.Payload)]
	}
	it := itemPool.Get().(*Item)
	*it = Item{Op: newOp, buf: bb}
	return it, bb
}

func (q *Queue) release(it *Item, bb *bytebufferpool.ByteBuffer) {
	if bb != nil {
		bytebufferpool.Put(bb)
	}
	opPool.Put(it.Op)
	it.Op = nil
	itemPool.Put(it)
	atomic.AddUint64(&q.dropped, 1)
	queueDropped.Inc()
}

// TryEnqueue copies the op (payload into a pooled buffer) and enqueues it
// without blocking. Returns ErrQueueFull at capacity.
func (q *Queue) TryEnqueue(op *Op) error {
	it, bb := q.prepare(op)
	select {
	case q.ch <- it:
		return nil
	default:
		q.release(it, bb)
		return ErrQueueFull
	}
}

// Enqueue blocks until space is available or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, op *Op) error {
	it, bb := q.prepare(op)
	select {
	case q.ch <- it:
		return nil
	case <-ctx.Done():
		q.release(it, bb)
		return ctx.Err()
	}
}
