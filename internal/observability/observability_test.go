package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	id := GenerateCorrelationID()
	assert.Len(t, id, 36)

	ctx := WithCorrelationID(context.Background(), id)
	assert.Equal(t, id, ExtractCorrelationID(ctx))
	assert.Empty(t, ExtractCorrelationID(context.Background()))
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx := EnsureCorrelationID(context.Background())
	id := ExtractCorrelationID(ctx)
	assert.Len(t, id, 36)

	// An existing id is kept.
	assert.Equal(t, id, ExtractCorrelationID(EnsureCorrelationID(ctx)))
	assert.Equal(t, "abc", ExtractCorrelationID(EnsureCorrelationID(WithCorrelationID(context.Background(), "abc"))))
}

func TestSetLevelFiltersDebug(t *testing.T) {
	defer SetLevel("info")

	var buf bytes.Buffer
	logger := NewLogger(&buf)

	SetLevel("info")
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	SetLevel("DEBUG")
	logger.Debug("shown", "k", "v")
	require.NotZero(t, buf.Len())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "v", line["k"])
}

func TestRepoLoggerWritesTableAndCorrelation(t *testing.T) {
	defer SetLevel("info")
	SetLevel("debug")

	var buf bytes.Buffer
	rl := &RepoLogger{tableName: "follow_edges", logger: NewLogger(&buf)}
	ctx := WithCorrelationID(context.Background(), "abc")

	rl.LogCreate(ctx, map[string]interface{}{"owner_id": "o1"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "follow_edges", line["table"])
	assert.Equal(t, "create", line["operation"])
	assert.Equal(t, "abc", line["correlation_id"])
	assert.Equal(t, "o1", line["owner_id"])

	buf.Reset()
	rl.LogError(ctx, errors.New("boom"), "delete")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["error"])
}

func TestDisabledServiceLogging(t *testing.T) {
	prev := Config
	defer func() { Config = prev }()
	Config.EnableServiceLogging = false

	var buf bytes.Buffer
	sl := &StructuredLogger{logger: NewLogger(&buf)}
	sl.LogServiceCall(context.Background(), "FeedService", "Assemble", nil)
	assert.Zero(t, buf.Len())
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(StorageRoundTrips.WithLabelValues("follow_status_batch"))
	RecordRoundTrip("follow_status_batch")
	assert.Equal(t, before+1, testutil.ToFloat64(StorageRoundTrips.WithLabelValues("follow_status_batch")))

	before = testutil.ToFloat64(VisibilityDecisions.WithLabelValues("single", DecisionDeniedBlocked))
	RecordDecision("single", DecisionDeniedBlocked)
	assert.Equal(t, before+1, testutil.ToFloat64(VisibilityDecisions.WithLabelValues("single", DecisionDeniedBlocked)))
}

func TestTrackQueryObserves(t *testing.T) {
	TrackQuery("select", "observability_test")()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency, "nyx_database_query_latency_seconds"), 1)
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "nyx-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "policy", "can_view", attribute.String("item_id", "i1"))
	assert.NotNil(t, ctx)
	span.SetError(errors.New("x"))
	span.End()

	var nilSpan *Span
	nilSpan.End()
}
