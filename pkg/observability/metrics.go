package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the subset of the CloudWatch client used for business metrics
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Collector holds the Prometheus metrics of the service and optionally
// mirrors join outcomes to CloudWatch
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	Joins            *prometheus.CounterVec
	JoinAttempts     prometheus.Histogram
	JoinConflicts    prometheus.Counter
	MessagesRecorded prometheus.Counter

	cloudwatch PutMetricDataAPI
	namespace  string
	logger     *zap.Logger
}

// NewCollector creates a collector with its own registry. cw may be nil.
func NewCollector(namespace string, cw PutMetricDataAPI, logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Joins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circle_joins_total",
				Help:      "Finished join requests by outcome",
			},
			[]string{"outcome"},
		),
		JoinAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "circle_join_attempts",
				Help:      "Allocation attempts needed per join",
				Buckets:   []float64{1, 2, 3, 5, 8, 13},
			},
		),
		JoinConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circle_join_conflicts_total",
				Help:      "Conditioned appends rejected by storage",
			},
		),
		MessagesRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_recorded_total",
				Help:      "Total number of voice messages stored",
			},
		),
		cloudwatch: cw,
		namespace:  namespace,
		logger:     logger,
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Joins,
		c.JoinAttempts,
		c.JoinConflicts,
		c.MessagesRecorded,
	)
	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordJoin counts a finished join
func (c *Collector) RecordJoin(outcome string, attempts int) {
	c.Joins.WithLabelValues(outcome).Inc()
	c.JoinAttempts.Observe(float64(attempts))

	if c.cloudwatch != nil {
		go c.putJoinMetric(outcome, attempts)
	}
}

// RecordJoinConflict counts a rejected conditioned append
func (c *Collector) RecordJoinConflict() {
	c.JoinConflicts.Inc()
}

// RecordMessage counts a stored message
func (c *Collector) RecordMessage() {
	c.MessagesRecorded.Inc()
}

func (c *Collector) putJoinMetric(outcome string, attempts int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := time.Now()
	dims := []types.Dimension{{Name: aws.String("Outcome"), Value: aws.String(outcome)}}

	_, err := c.cloudwatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(c.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("CircleJoin"),
				Dimensions: dims,
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String("CircleJoinAttempts"),
				Dimensions: dims,
				Value:      aws.Float64(float64(attempts)),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
		},
	})
	if err != nil {
		// Metrics never fail a request
		c.logger.Warn("Failed to send metrics to CloudWatch", zap.Error(err))
	}
}
