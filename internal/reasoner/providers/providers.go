// Package providers registers the built-in LLM reasoner providers.
package providers

import (
	"finguard/internal/config"
	"finguard/internal/port"
	"finguard/internal/reasoner"
	"finguard/internal/reasoner/claude"
	"finguard/internal/reasoner/gemini"
	"finguard/internal/reasoner/openai"
)

// Register makes claude, openai and gemini available to reasoner.Build.
func Register() {
	reasoner.RegisterProvider("claude", func(cfg *config.ReasonerProviderConfig) (port.Reasoner, error) {
		return claude.NewReasoner(cfg), nil
	})
	reasoner.RegisterProvider("openai", func(cfg *config.ReasonerProviderConfig) (port.Reasoner, error) {
		return openai.NewReasoner(cfg), nil
	})
	reasoner.RegisterProvider("gemini", func(cfg *config.ReasonerProviderConfig) (port.Reasoner, error) {
		return gemini.NewReasoner(cfg), nil
	})
}
