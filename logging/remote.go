package logging

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteSink ships serialized log records to an HTTP log collector. Records
// are handed off through a bounded queue and dispatched by a background
// worker, so a slow or unavailable collector never blocks the caller. When
// the queue is full the incoming record is dropped and counted. Delivery
// failures are counted and swallowed.
type RemoteSink struct {
	url     string
	timeout time.Duration
	client  *http.Client

	queue     chan []byte
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	dropped atomic.Int64
	failed  atomic.Int64
}

// NewRemoteSink creates a remote sink and starts its dispatch worker
func NewRemoteSink(cfg RemoteConfig) *RemoteSink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}

	s := &RemoteSink{
		url:     cfg.URL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		queue:   make(chan []byte, queueSize),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

// Write enqueues one serialized record. It never blocks; when the queue is
// full the record is dropped. Implements zapcore.WriteSyncer together with
// Sync.
func (s *RemoteSink) Write(p []byte) (int, error) {
	// zap reuses the buffer after Write returns
	record := make([]byte, len(p))
	copy(record, p)

	select {
	case s.queue <- record:
	default:
		s.dropped.Add(1)
	}

	return len(p), nil
}

// Sync implements zapcore.WriteSyncer. Delivery is best effort, so there is
// nothing synchronous to flush here; draining happens in Close.
func (s *RemoteSink) Sync() error {
	return nil
}

// Close stops the worker after draining the queue, waiting up to timeout
func (s *RemoteSink) Close(timeout time.Duration) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		finished := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(timeout):
			err = fmt.Errorf("remote log sink close timeout after %v", timeout)
		}
	})
	return err
}

// Dropped returns the number of records discarded because the queue was full
func (s *RemoteSink) Dropped() int64 {
	return s.dropped.Load()
}

// Failed returns the number of records that could not be delivered
func (s *RemoteSink) Failed() int64 {
	return s.failed.Load()
}

func (s *RemoteSink) worker() {
	defer s.wg.Done()

	for {
		select {
		case record := <-s.queue:
			s.dispatch(record)
		case <-s.done:
			s.drain()
			return
		}
	}
}

// drain delivers whatever is still queued at shutdown
func (s *RemoteSink) drain() {
	for {
		select {
		case record := <-s.queue:
			s.dispatch(record)
		default:
			return
		}
	}
}

func (s *RemoteSink) dispatch(record []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(record))
	if err != nil {
		s.failed.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.failed.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		s.failed.Add(1)
	}
}
