package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestLeadViewsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewForRegistry(reg)

	m.LeadViewsTotal.WithLabelValues("true").Inc()
	m.LeadViewsTotal.WithLabelValues("true").Inc()
	m.LeadViewsTotal.WithLabelValues("false").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadViewsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadViewsTotal.WithLabelValues("false")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "lead_views_total")
}
