package kafka

import (
	"testing"

	"github.com/arklim/rera-lookup-gateway/internal/infra/config"
)

func TestProducer_TopicName(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		eventType string
		want      string
	}{
		{"with prefix", "rera", "lookup.finished", "rera.lookup.finished"},
		{"already prefixed", "rera", "rera.lookup.finished", "rera.lookup.finished"},
		{"no prefix", "", "lookup.finished", "lookup.finished"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Producer{cfg: config.KafkaSettings{TopicPrefix: tt.prefix}}
			if got := p.TopicName(tt.eventType); got != tt.want {
				t.Fatalf("TopicName(%q) = %q, want %q", tt.eventType, got, tt.want)
			}
		})
	}
}
