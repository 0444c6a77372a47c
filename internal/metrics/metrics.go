// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics records per-op counters and latencies for the tree
// operations the dispatcher executes, on top of the OTel metrics API.
// A package-level handle is installed once at server startup (mirroring
// how internal/logger exposes package-level Tracef/Debugf/... on top of
// a single configurable logger), so the dispatcher can record a
// measurement without threading a handle through every call.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OpKey annotates the filesystem opcode a measurement is for.
const OpKey = "fs_op"

var defaultLatencyDistribution = metric.WithExplicitBucketBoundaries(
	1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100,
	130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000,
)

// Handle records the ops count, latency and error count for one
// tree operation. OpsMetricHandle in otel_metrics.go is the model;
// tecnicofs only needs the fs-op triad, not GCS/file-cache metrics.
type Handle interface {
	OpsCount(ctx context.Context, inc int64, op string)
	OpsLatency(ctx context.Context, latency time.Duration, op string)
	OpsErrorCount(ctx context.Context, inc int64, op string)
}

var defaultHandle Handle = noopHandle{}

// SetHandle installs h as the package-level handle RecordOp reports
// through. Call once during server startup; unset, RecordOp is a noop.
func SetHandle(h Handle) {
	if h == nil {
		h = noopHandle{}
	}
	defaultHandle = h
}

// RecordOp reports one execution of op that started at start: the ops
// counter and latency histogram always fire, and the error counter
// fires too when err is non-nil. The dispatcher calls this around
// every tree operation it executes.
func RecordOp(ctx context.Context, op string, start time.Time, err error) {
	defaultHandle.OpsCount(ctx, 1, op)
	defaultHandle.OpsLatency(ctx, time.Since(start), op)
	if err != nil {
		defaultHandle.OpsErrorCount(ctx, 1, op)
	}
}

type noopHandle struct{}

func (noopHandle) OpsCount(context.Context, int64, string)         {}
func (noopHandle) OpsLatency(context.Context, time.Duration, string) {}
func (noopHandle) OpsErrorCount(context.Context, int64, string)    {}

var fsOpsMeter = otel.Meter("tecnicofs/fs_op")

// opAttributeSets caches the one-attribute attribute.Set for each opcode,
// the same loadOrStoreAttributeOption idiom otel_metrics.go uses to
// avoid re-allocating a Set on every single recorded op.
var opAttributeSets sync.Map

func opAttributeOption(op string) metric.MeasurementOption {
	if v, ok := opAttributeSets.Load(op); ok {
		return v.(metric.MeasurementOption)
	}
	opt := metric.WithAttributeSet(attribute.NewSet(attribute.String(OpKey, op)))
	actual, _ := opAttributeSets.LoadOrStore(op, opt)
	return actual.(metric.MeasurementOption)
}

type otelHandle struct {
	opsCount      metric.Int64Counter
	opsLatency    metric.Float64Histogram
	opsErrorCount metric.Int64Counter
}

// NewOTelHandle builds a Handle backed by the global OTel MeterProvider,
// following otel_metrics.go's NewOTelMetrics: one counter for ops
// processed, one histogram for op latency (microseconds, explicit
// buckets), and one counter for op errors, all keyed by opcode.
func NewOTelHandle() (Handle, error) {
	opsCount, err1 := fsOpsMeter.Int64Counter("fs/ops_count",
		metric.WithDescription("The cumulative number of ops processed by the tree."))
	opsLatency, err2 := fsOpsMeter.Float64Histogram("fs/ops_latency",
		metric.WithDescription("The cumulative distribution of tree operation latencies."),
		metric.WithUnit("us"), defaultLatencyDistribution)
	opsErrorCount, err3 := fsOpsMeter.Int64Counter("fs/ops_error_count",
		metric.WithDescription("The cumulative number of errors returned by tree operations."))

	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}

	return &otelHandle{
		opsCount:      opsCount,
		opsLatency:    opsLatency,
		opsErrorCount: opsErrorCount,
	}, nil
}

func (o *otelHandle) OpsCount(ctx context.Context, inc int64, op string) {
	o.opsCount.Add(ctx, inc, opAttributeOption(op))
}

func (o *otelHandle) OpsLatency(ctx context.Context, latency time.Duration, op string) {
	o.opsLatency.Record(ctx, float64(latency.Microseconds()), opAttributeOption(op))
}

func (o *otelHandle) OpsErrorCount(ctx context.Context, inc int64, op string) {
	o.opsErrorCount.Add(ctx, inc, opAttributeOption(op))
}
