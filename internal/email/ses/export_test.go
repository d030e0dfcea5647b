package ses

import (
	"finguard/internal/config"
	"finguard/internal/port"
)

// NewWithClient exposes the notifier constructor to tests with a fake client.
func NewWithClient(client sendAPI, cfg *config.EmailConfig) port.EscalationNotifier {
	return newNotifier(client, cfg)
}
