package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
)

type fakeWriter struct {
	failures int
	calls    int
	sent     []kafkago.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("leader not available")
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testManifest() domain.Manifest {
	return domain.Manifest{
		RunID:       "run-1",
		CompletedAt: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
		Sources:     []string{"a.epw", "b.epw"},
		Columns:     []string{"source_file", "datetime"},
		Rows:        17520,
		ComfortMode: "enabled",
		Artifacts:   []domain.Artifact{{Format: "parquet", Path: "out.parquet", Bytes: 1024}},
	}
}

func newTestNotifier(w messageWriter) (*Notifier, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return &Notifier{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), metrics: metrics}, metrics
}

func TestSerializeToMessage(t *testing.T) {
	m := testManifest()

	msg, err := serializeToMessage(m)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "comfort_mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("enabled"), msg.Headers[0].Value)
	assert.Equal(t, []byte("17520"), msg.Headers[1].Value)
	assert.Equal(t, []byte("2024-03-01T14:05:00Z"), msg.Headers[2].Value)

	var got domain.Manifest
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, m, got)
}

func TestPublish_RetriesTransientFailures(t *testing.T) {
	w := &fakeWriter{failures: 1}
	n, metrics := newTestNotifier(w)

	require.NoError(t, n.Publish(context.Background(), testManifest()))
	assert.Equal(t, 2, w.calls)
	assert.Len(t, w.sent, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ManifestsSent.WithLabelValues("success")))
}

func TestPublish_GivesUpAfterCancel(t *testing.T) {
	w := &fakeWriter{failures: maxAttempts}
	n, metrics := newTestNotifier(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Publish(ctx, testManifest())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ManifestsSent.WithLabelValues("error")))
}

func TestPublish_ExhaustsAttempts(t *testing.T) {
	w := &fakeWriter{failures: maxAttempts}
	n, _ := newTestNotifier(w)

	err := n.Publish(context.Background(), testManifest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, maxAttempts, w.calls)
}
