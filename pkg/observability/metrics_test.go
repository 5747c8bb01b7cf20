package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	done   chan struct{}
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	f.done <- struct{}{}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCollector_BusinessMetrics(t *testing.T) {
	c := NewCollector("aura", nil, zap.NewNop())

	c.RecordJoin("joined", 1)
	c.RecordJoin("joined", 2)
	c.RecordJoin("created", 1)
	c.RecordJoinConflict()
	c.RecordMessage()

	assert.Equal(t, float64(2), testutil.ToFloat64(c.Joins.WithLabelValues("joined")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Joins.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.JoinConflicts))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.MessagesRecorded))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("aura", nil, zap.NewNop())
	c.ObserveHTTP(http.MethodPost, "/api/circles/join", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `aura_http_requests_total{method="POST",route="/api/circles/join",status="200"} 1`)
}

func TestCollector_MirrorsJoinsToCloudWatch(t *testing.T) {
	cw := &fakeCloudWatch{done: make(chan struct{}, 1)}
	c := NewCollector("Aura", cw, zap.NewNop())

	c.RecordJoin("contention", 5)

	select {
	case <-cw.done:
	case <-time.After(2 * time.Second):
		t.Fatal("metric was not sent")
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	require.Len(t, cw.inputs, 1)
	assert.Equal(t, "Aura", aws.ToString(cw.inputs[0].Namespace))
	assert.Len(t, cw.inputs[0].MetricData, 2)
}

func TestTracer_TraceFunctionWithoutSegment(t *testing.T) {
	called := false
	err := NewTracer("aura").TraceFunction(context.Background(), "noop", func(context.Context) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
}
