package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/sliceview/domain/geometry"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()
	c.Reconciled(geometry.ModePrecise)
	c.Reconciled(geometry.ModePrecise)
	c.Reconciled(geometry.ModeDegraded)
	c.Handoff("slice-opened")
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	c.FrameCaptured()
	c.MetadataWait(120 * time.Millisecond)
	c.SlicesOpen(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.reconcileTotal.WithLabelValues("precise")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconcileTotal.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.handoffTotal.WithLabelValues("slice-opened")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.framesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.slicesOpen))
	assert.Equal(t, 1, testutil.CollectAndCount(c.metadataWait))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Reconciled(geometry.ModeDegraded)
	c.Handoff("x")
	c.SessionOpened()
	c.SessionClosed()
	c.FrameCaptured()
	c.MetadataWait(time.Second)
	c.SlicesOpen(1)
	c.EnumerationFailed()
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.Serve(context.Background(), ":0", nil))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.Reconciled(geometry.ModeDegraded)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `sliceview_reconcile_total{mode="degraded"} 1`), body)
}
