package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves log I/O off the calling goroutine. Records are queued and
// written in order by a single loop that fans out to every sink.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once

	closeMu sync.RWMutex
	closed  bool

	mu       sync.Mutex
	sinks    []*bufio.Writer
	writeErr error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, bufio.NewWriterSize(w, bufSize))
		}
	}
	aw := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		sinks:    sinks,
	}
	go aw.loop()
	return aw
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case data, ok := <-w.queue:
			if !ok {
				_ = w.flushAll()
				return
			}
			w.setErr(w.writeAll(data))
			if len(w.queue) == 0 {
				w.setErr(w.flushAll())
			}
		case ack := <-w.flushReq:
			ack <- w.drainAndFlush()
		}
	}
}

// drainAndFlush writes everything already queued before flushing the sinks.
func (w *asyncWriter) drainAndFlush() error {
	for {
		select {
		case data, ok := <-w.queue:
			if !ok {
				return w.flushAll()
			}
			w.setErr(w.writeAll(data))
		default:
			return w.flushAll()
		}
	}
}

// Write enqueues a copy of p. A full queue blocks rather than dropping records.
// Sinks are flushed whenever the queue runs empty.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.getErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return errors.New("logger: writer closed")
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until queued records reach every sink.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.getErr()
	}
}

// Close drains the queue and reports the first encountered write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() {
		w.closeMu.Lock()
		w.closed = true
		close(w.queue)
		w.closeMu.Unlock()
	})
	<-w.done
	return w.getErr()
}

func (w *asyncWriter) writeAll(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) getErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeErr
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr == nil {
		w.writeErr = err
	}
}
