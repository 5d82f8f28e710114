package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
}

// New registers the service counters with reg. main passes the default
// registerer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	loginAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm_auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	tokenVerifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sm_auth",
			Name:      "token_verifications_total",
			Help:      "Token verifications by outcome",
		},
		[]string{"outcome"},
	)
	reg.MustRegister(loginAttempts, tokenVerifications)
	return &Metrics{
		LoginAttempts:      loginAttempts,
		TokenVerifications: tokenVerifications,
	}
}
