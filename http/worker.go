package http

import (
	"errors"
	"net"
	"runtime"
	"sync/atomic"
)

// WorkerPoolSize bounds the number of accepted connections a bounded worker
// pool (Options.Workers > 0) will hold queued while waiting for a free
// worker; connections a worker is already serving do not count against it.
// Must be a power of two
// — the ring buffer below masks indices instead of taking a modulus.
const WorkerPoolSize = 1024

var (
	// ErrFull is returned by connRingBuffer.Enqueue when the pool is
	// saturated — the acceptor's backpressure signal (§4.8).
	ErrFull  = errors.New("http: worker pool is full")
	ErrEmpty = errors.New("http: worker pool is empty")
)

// connRingBuffer is a lock-free, fixed-capacity MPMC queue of accepted
// connections. Adapted from the teacher's WorkerPool ring buffer: the
// teacher pooled pre-allocated *RequestCtx slots sized by a wire-format
// concept (request parsing buffers) mixed into an unrelated fixed-array
// pool; here the pool holds nothing but the net.Conn hand-off itself, since
// a Request/Response/Parser is allocated for the connection's lifetime
// rather than pulled from a shared array (see Design Notes "Blocking I/O
// with thread-per-connection" and REDESIGN FLAGS).
type connRingBuffer struct {
	buffer [WorkerPoolSize]connSlot
	mask   uint64
	enqPos uint64
	deqPos uint64
}

type connSlot struct {
	sequence uint64
	value    net.Conn
}

func newConnRingBuffer() *connRingBuffer {
	q := &connRingBuffer{mask: WorkerPoolSize - 1}
	for i := range q.buffer {
		q.buffer[i].sequence = uint64(i)
	}
	return q
}

func (q *connRingBuffer) Enqueue(val net.Conn) error {
	for {
		pos := atomic.LoadUint64(&q.enqPos)
		slot := &q.buffer[pos&q.mask]

		seq := atomic.LoadUint64(&slot.sequence)
		delta := int64(seq) - int64(pos)

		if delta == 0 {
			if atomic.CompareAndSwapUint64(&q.enqPos, pos, pos+1) {
				slot.value = val
				atomic.StoreUint64(&slot.sequence, pos+1)
				return nil
			}
		} else if delta < 0 {
			return ErrFull
		} else {
			runtime.Gosched()
		}
	}
}

func (q *connRingBuffer) Dequeue() (net.Conn, error) {
	for {
		pos := atomic.LoadUint64(&q.deqPos)
		slot := &q.buffer[pos&q.mask]

		seq := atomic.LoadUint64(&slot.sequence)
		delta := int64(seq) - int64(pos+1)

		if delta == 0 {
			if atomic.CompareAndSwapUint64(&q.deqPos, pos, pos+1) {
				val := slot.value
				slot.value = nil
				atomic.StoreUint64(&slot.sequence, pos+q.mask+1)
				return val, nil
			}
		} else if delta < 0 {
			return nil, ErrEmpty
		} else {
			runtime.Gosched()
		}
	}
}

// workerPool drains accepted connections off a connRingBuffer with a fixed
// number of goroutines, each driving ServeConn to completion before picking
// up the next connection — the bounded-concurrency alternative to
// thread-per-connection (§5: "an implementer may use a bounded worker pool
// ... without changing any observable contract").
type workerPool struct {
	queue *connRingBuffer
	stop  chan struct{}
}

func newWorkerPool(n int, serve func(net.Conn)) *workerPool {
	wp := &workerPool{queue: newConnRingBuffer(), stop: make(chan struct{})}
	for i := 0; i < n; i++ {
		go wp.loop(serve)
	}
	return wp
}

func (wp *workerPool) loop(serve func(net.Conn)) {
	for {
		select {
		case <-wp.stop:
			return
		default:
		}
		conn, err := wp.queue.Dequeue()
		if err != nil {
			runtime.Gosched()
			continue
		}
		serve(conn)
	}
}

// submit hands a connection to the pool. If the pool is saturated
// (ErrFull), the caller is expected to close the connection itself — a
// bounded pool sheds load rather than growing unbounded.
func (wp *workerPool) submit(conn net.Conn) error {
	return wp.queue.Enqueue(conn)
}

func (wp *workerPool) Close() {
	close(wp.stop)
}
