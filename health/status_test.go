package health

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Predicates(t *testing.T) {
	assert.True(t, NewHealthy("engine", "running").IsHealthy())
	assert.True(t, NewDegraded("engine", "retrying").IsDegraded())
	assert.True(t, NewUnhealthy("engine", "retry exhausted").IsUnhealthy())
	assert.True(t, NewStopped("engine", "stopped").IsStopped())

	// Stopped is at-rest, not a failure
	assert.True(t, NewStopped("engine", "stopped").Healthy)
	assert.False(t, NewDegraded("engine", "retrying").Healthy)
}

func TestFromError(t *testing.T) {
	s := FromError("device", nil)
	assert.True(t, s.IsHealthy())

	s = FromError("device", errors.New("scan failed"))
	assert.True(t, s.IsUnhealthy())
	assert.Equal(t, "device", s.Component)
	assert.Contains(t, s.Message, "scan failed")
}

func TestFromError_Sanitizes(t *testing.T) {
	tests := []struct {
		name        string
		err         string
		notContains string
		contains    string
	}{
		{"url", "fetch http://10.0.0.1:9090/metrics failed", "http://", "[URL]"},
		{"unix path", "open /etc/daqcore/config.yaml failed", "/etc/daqcore", "[PATH]"},
		{"ip address", "board at 192.168.1.100 unreachable", "192.168.1.100", "[IP]"},
		{"credential", "auth password=hunter2 rejected", "hunter2", "[REDACTED]"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := FromError("device", errors.New(test.err))
			assert.NotContains(t, s.Message, test.notContains)
			assert.Contains(t, s.Message, test.contains)
		})
	}
}

func TestAggregate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Aggregate("daqcore", nil)
		assert.True(t, s.IsHealthy())
	})

	t.Run("all healthy", func(t *testing.T) {
		s := Aggregate("daqcore", []Status{
			NewHealthy("engine", "running"),
			NewHealthy("bus", "ok"),
		})
		assert.True(t, s.IsHealthy())
		assert.Len(t, s.SubStatuses, 2)
	})

	t.Run("degraded wins over healthy", func(t *testing.T) {
		s := Aggregate("daqcore", []Status{
			NewHealthy("bus", "ok"),
			NewDegraded("engine", "restart 1"),
		})
		assert.True(t, s.IsDegraded())
	})

	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		s := Aggregate("daqcore", []Status{
			NewDegraded("engine", "restart 1"),
			NewUnhealthy("device", "no response"),
		})
		assert.True(t, s.IsUnhealthy())
	})

	t.Run("stopped counts as healthy", func(t *testing.T) {
		s := Aggregate("daqcore", []Status{
			NewStopped("engine", "stopped"),
			NewHealthy("bus", "ok"),
		})
		assert.True(t, s.IsHealthy())
	})
}

func TestStatus_WithSubStatus(t *testing.T) {
	base := NewHealthy("daqcore", "ok")
	withSub := base.WithSubStatus(NewHealthy("engine", "running"))

	assert.Empty(t, base.SubStatuses, "original must not be mutated")
	assert.Len(t, withSub.SubStatuses, 1)
}

func TestStatus_WithMetrics(t *testing.T) {
	m := &Metrics{Uptime: time.Minute, Cycles: 120, Restarts: 1}
	s := NewHealthy("engine", "running").WithMetrics(m)
	assert.Equal(t, int64(120), s.Metrics.Cycles)
	assert.Equal(t, 1, s.Metrics.Restarts)
}
