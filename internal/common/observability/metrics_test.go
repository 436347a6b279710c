package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// actionCount sums every store.actions sample gathered from reg.
func actionCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "store_actions") {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNew_LeavesGlobalMeterProviderAlone(t *testing.T) {
	global := otel.GetMeterProvider()

	first := New("first", Options{Registerer: prometheus.NewRegistry()})
	defer first.Shutdown()
	second := New("second", Options{Registerer: prometheus.NewRegistry()})
	defer second.Shutdown()

	require.NotNil(t, first.meterProvider)
	require.NotNil(t, second.meterProvider)
	assert.Same(t, global, otel.GetMeterProvider())
	assert.NotSame(t, first.meterProvider, second.meterProvider)
}

func TestNew_InstancesRecordIndependently(t *testing.T) {
	ctx := context.Background()
	firstReg, secondReg := prometheus.NewRegistry(), prometheus.NewRegistry()

	first := New("first", Options{Registerer: firstReg})
	defer first.Shutdown()
	second := New("second", Options{Registerer: secondReg})
	defer second.Shutdown()

	first.RecordAction(ctx, "talents/fetchAll", "fulfilled")
	first.RecordAction(ctx, "talents/fetchAll", "rejected")
	second.RecordAction(ctx, "messages/send", "fulfilled")
	second.RecordActionDuration(ctx, "messages/send", 12*time.Millisecond, "fulfilled")

	assert.Equal(t, float64(2), actionCount(t, firstReg))
	assert.Equal(t, float64(1), actionCount(t, secondReg))

	second.Shutdown()
	first.RecordAction(ctx, "talents/fetchAll", "fulfilled")
	assert.Equal(t, float64(3), actionCount(t, firstReg))
}

func TestRecord_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordAction(context.Background(), "a", "fulfilled")
		obs.RecordActionDuration(context.Background(), "a", time.Millisecond, "fulfilled")
		obs.Shutdown()
	})
}
