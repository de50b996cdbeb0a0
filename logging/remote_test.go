package logging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// collectorServer records every body POSTed to it
type collectorServer struct {
	mu     sync.Mutex
	bodies [][]byte
	delay  time.Duration
}

func (c *collectorServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (c *collectorServer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func TestRemoteSink(t *testing.T) {
	t.Run("delivers queued records to the collector", func(t *testing.T) {
		collector := &collectorServer{}
		server := httptest.NewServer(collector)
		defer server.Close()

		logger, err := New(Config{
			Remote: &RemoteConfig{URL: server.URL, QueueSize: 16, Timeout: time.Second, Level: "info"},
		})
		require.NoError(t, err)

		logger.Info("first", zap.String("endpoint", "/normal"))
		logger.Warn("second")
		logger.Error("third")
		require.NoError(t, logger.Close(2*time.Second))

		require.Equal(t, 3, collector.count())

		var record map[string]any
		require.NoError(t, json.Unmarshal(collector.bodies[0], &record))
		assert.Equal(t, "first", record["message"])
		assert.Equal(t, "/normal", record["endpoint"])
		assert.NotEmpty(t, record["timestamp"])
	})

	t.Run("respects the sink minimum level", func(t *testing.T) {
		collector := &collectorServer{}
		server := httptest.NewServer(collector)
		defer server.Close()

		logger, err := New(Config{
			Remote: &RemoteConfig{URL: server.URL, QueueSize: 16, Timeout: time.Second, Level: "error"},
		})
		require.NoError(t, err)

		logger.Info("filtered")
		logger.Error("shipped")
		require.NoError(t, logger.Close(2*time.Second))

		assert.Equal(t, 1, collector.count())
	})

	t.Run("drops the newest record when the queue is full", func(t *testing.T) {
		collector := &collectorServer{delay: 300 * time.Millisecond}
		server := httptest.NewServer(collector)
		defer server.Close()

		sink := NewRemoteSink(RemoteConfig{URL: server.URL, QueueSize: 1, Timeout: time.Second})
		for i := 0; i < 20; i++ {
			n, err := sink.Write([]byte(`{"message":"burst"}`))
			require.NoError(t, err, "a full queue must never surface an error")
			assert.Equal(t, 19, n)
		}

		assert.Greater(t, sink.Dropped(), int64(0))
		_ = sink.Close(2 * time.Second)
	})

	t.Run("delivery failures are swallowed and counted", func(t *testing.T) {
		// nothing listens here
		sink := NewRemoteSink(RemoteConfig{URL: "http://127.0.0.1:1", QueueSize: 4, Timeout: 200 * time.Millisecond})

		_, err := sink.Write([]byte(`{"message":"lost"}`))
		require.NoError(t, err)
		require.NoError(t, sink.Close(2*time.Second))

		assert.Equal(t, int64(1), sink.Failed())
	})
}
