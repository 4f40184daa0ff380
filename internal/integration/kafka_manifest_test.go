//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/epw-merge-etl/internal/adapter/kafka"
	"github.com/couchcryptid/epw-merge-etl/internal/adapter/parquet"
	"github.com/couchcryptid/epw-merge-etl/internal/comfort"
	"github.com/couchcryptid/epw-merge-etl/internal/domain"
	"github.com/couchcryptid/epw-merge-etl/internal/epw/epwtest"
	"github.com/couchcryptid/epw-merge-etl/internal/observability"
	"github.com/couchcryptid/epw-merge-etl/internal/pipeline"
)

const testManifestTopic = "test-epw-artifacts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("epw-merge-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// TestPipelinePublishesManifest merges two synthetic files and reads the run
// manifest back from the topic.
func TestPipelinePublishesManifest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testManifestTopic)

	dir := t.TempDir()
	a, err := epwtest.Write(dir, "sao_paulo_2021.epw", epwtest.Defaults())
	require.NoError(t, err)
	b, err := epwtest.Write(dir, "sao_paulo_ssp245_2050.epw", epwtest.Defaults())
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	notifier := kafka.NewNotifier([]string{broker}, testManifestTopic, discardLogger(), metrics)
	t.Cleanup(func() { _ = notifier.Close() })

	pw, err := parquet.NewWriter(parquet.Options{}, discardLogger())
	require.NoError(t, err)

	output := filepath.Join(dir, "merged.parquet")
	p := pipeline.New(pipeline.Options{
		Columns: domain.DefaultColumns,
		Comfort: comfort.LoadOptions{Indices: []string{comfort.DiscomfortIndex}},
		Output:  output,
	}, pw, nil, notifier, discardLogger(), metrics)

	res, err := p.Run(ctx, []string{a, b})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testManifestTopic,
		GroupID:     fmt.Sprintf("test-manifest-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read manifest")

	var m domain.Manifest
	require.NoError(t, json.Unmarshal(msg.Value, &m))
	assert.Equal(t, m.RunID, string(msg.Key))
	assert.Equal(t, []string{"sao_paulo_2021.epw", "sao_paulo_ssp245_2050.epw"}, m.Sources)
	assert.Equal(t, res.Dataset.Len(), m.Rows)
	assert.Equal(t, res.Dataset.Schema().Names(), m.Columns)
	require.Len(t, m.Artifacts, 1)
	assert.Equal(t, output, m.Artifacts[0].Path)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "enabled", headers["comfort_mode"])
	assert.Equal(t, strconv.Itoa(m.Rows), headers["rows"])
}
