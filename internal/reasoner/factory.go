package reasoner

import (
	"fmt"

	"go.uber.org/zap"

	"finguard/internal/config"
	"finguard/internal/port"
)

// ProviderFactory is a function that creates a Reasoner from a provider config.
type ProviderFactory func(cfg *config.ReasonerProviderConfig) (port.Reasoner, error)

// registry of provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a reasoner provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewReasoner creates a Reasoner from a provider config using the registered factory.
func NewReasoner(cfg *config.ReasonerProviderConfig) (port.Reasoner, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown reasoner provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build chains the configured providers behind a circuit-breaking fallback
// and bounds the whole chain. It returns nil when no provider is configured.
func Build(cfg *config.Config, logger *zap.Logger) (port.Reasoner, error) {
	configs := cfg.Reasoner.Providers()
	if len(configs) == 0 {
		return nil, nil
	}
	reasoners := make([]port.Reasoner, 0, len(configs))
	names := make([]string, 0, len(configs))
	for _, pc := range configs {
		r, err := NewReasoner(pc)
		if err != nil {
			return nil, err
		}
		reasoners = append(reasoners, r)
		names = append(names, pc.Provider)
	}
	chain := NewFallbackReasoner(reasoners, names, logger)
	return NewBounded(chain, cfg.Engine.ReasonerTimeout, cfg.Engine.ReasonerMaxAttempts, logger).
		WithRateLimit(cfg.Engine.ReasonerRPS, cfg.Engine.ReasonerBurst), nil
}
