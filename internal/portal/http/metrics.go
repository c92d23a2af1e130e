package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type loginResult string

const (
	loginSuccess      loginResult = "success"
	loginBadRequest   loginResult = "bad_request"
	loginRejected     loginResult = "rejected"
	loginUnknownRole  loginResult = "unknown_role"
	loginBackendError loginResult = "error"
)

type loginMetrics struct {
	attempts *prometheus.CounterVec
}

// newLoginMetrics registers with reg. A nil reg keeps the collectors
// unregistered.
func newLoginMetrics(reg prometheus.Registerer) *loginMetrics {
	return &loginMetrics{
		attempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdaportal",
			Subsystem: "portal",
			Name:      "logins_total",
			Help:      "Portal login attempts by result.",
		}, []string{"result"}),
	}
}

func (m *loginMetrics) observe(r loginResult) {
	m.attempts.WithLabelValues(string(r)).Inc()
}
