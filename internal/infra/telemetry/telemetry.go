package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arklim/rera-lookup-gateway/internal/infra/config"
)

// Provider holds the domain-level metric collectors.
type Provider struct {
	lookups      *prometheus.CounterVec
	authAttempts *prometheus.CounterVec
}

// Attach registers the domain metrics and returns a provider handle.
func Attach(cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	namespace := cfg.Telemetry.MetricsNamespace
	if namespace == "" {
		namespace = "rera"
	}

	lookups := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of RERA lookups partitioned by outcome.",
	}, []string{"outcome"})

	authAttempts := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of Telegram auth operations partitioned by operation and result.",
	}, []string{"operation", "result"})

	return &Provider{
		lookups:      lookups,
		authAttempts: authAttempts,
	}, nil
}

// ObserveLookup counts one terminal lookup outcome.
func (p *Provider) ObserveLookup(outcome string) {
	if p == nil {
		return
	}
	p.lookups.WithLabelValues(outcome).Inc()
}

// ObserveAuth counts one auth operation result.
func (p *Provider) ObserveAuth(operation, result string) {
	if p == nil {
		return
	}
	p.authAttempts.WithLabelValues(operation, result).Inc()
}
