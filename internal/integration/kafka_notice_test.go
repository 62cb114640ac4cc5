//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/deforestation-alerts/internal/adapter/kafka"
	"github.com/couchcryptid/deforestation-alerts/internal/domain"
	"github.com/couchcryptid/deforestation-alerts/internal/imagery"
	"github.com/couchcryptid/deforestation-alerts/internal/impact"
	"github.com/couchcryptid/deforestation-alerts/internal/job"
	"github.com/couchcryptid/deforestation-alerts/internal/observability"
	"github.com/couchcryptid/deforestation-alerts/internal/patch"
)

const testSinkTopic = "test-deforestation-alerts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readNotice reads one completion notice from the sink topic.
func readNotice(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.CompletionNotice, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var notice domain.CompletionNotice
	require.NoError(t, json.Unmarshal(msg.Value, &notice), "unmarshal completion notice")
	return notice, headers
}

// TestNotifierRoundTrip verifies the adapter layer: a completion notice
// published through kafka.Notifier arrives intact on the sink topic.
func TestNotifierRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	notifier := kafkaadapter.NewNotifier([]string{broker}, testSinkTopic, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	sent := domain.CompletionNotice{
		AnalysisID:        "test-analysis",
		Timestamp:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Region:            domain.BBox{West: -62.4, South: -3.8, East: -62.1, North: -3.5},
		PatchCount:        2,
		TotalAreaHectares: 30.0,
		Impact: domain.AggregateImpact{
			Scenario:              domain.ScenarioNaturalRegeneration,
			TotalCarbonLossTonnes: 18717,
		},
	}
	require.NoError(t, notifier.NotifyCompleted(ctx, sent))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, headers := readNotice(ctx, t, consumer)
	assert.Equal(t, sent.AnalysisID, got.AnalysisID)
	assert.Equal(t, sent.Region, got.Region)
	assert.Equal(t, sent.PatchCount, got.PatchCount)
	assert.Equal(t, sent.Impact.TotalCarbonLossTonnes, got.Impact.TotalCarbonLossTonnes)

	assert.Equal(t, "2", headers["patch_count"])
	_, err := time.Parse(time.RFC3339, headers["completed_at"])
	assert.NoError(t, err, "completed_at should be valid RFC3339")
}

// TestAnalysisPublishesCompletionNotice wires the coordinator with the
// synthetic imagery source and a real Kafka notifier, then verifies a full
// analysis run publishes its notice.
func TestAnalysisPublishesCompletionNotice(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	notifier := kafkaadapter.NewNotifier([]string{broker}, testSinkTopic, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	classifier, err := domain.NewClassifier(domain.Thresholds{Low: 0.3, Medium: 0.4, High: 0.5})
	require.NoError(t, err)

	registry := job.NewRegistry()
	coordinator := job.NewCoordinator(job.Deps{
		Registry:   registry,
		Imagery:    imagery.NewSynthetic(256, 256),
		Classifier: classifier,
		Extractor: patch.NewExtractor(patch.Config{
			MinPatchHectares: 1.0,
			HighThreshold:    0.5,
		}, discardLogger()),
		Model:         impact.NewModel(impact.Rounding{}),
		Notifier:      notifier,
		Logger:        discardLogger(),
		Metrics:       observability.NewMetricsForTesting(),
		MaxConcurrent: 1,
	})

	now := time.Now().UTC()
	submitted := coordinator.Submit(ctx, job.SubmitRequest{
		Region: domain.BBox{West: -62.4, South: -3.8, East: -62.1, North: -3.5},
		Before: domain.DateWindow{Start: now.AddDate(-1, 0, -30), End: now.AddDate(-1, 0, 0)},
		After:  domain.DateWindow{Start: now.AddDate(0, 0, -30), End: now},
	})

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	notice, _ := readNotice(ctx, t, consumer)
	assert.Equal(t, submitted.ID, notice.AnalysisID)
	assert.Greater(t, notice.PatchCount, 0, "synthetic scene should yield patches")
	assert.Greater(t, notice.TotalAreaHectares, 0.0)
	assert.Len(t, notice.Patches, notice.PatchCount)

	final, err := registry.Get(submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, final.State)
	assert.Equal(t, 100, final.Progress)
}
