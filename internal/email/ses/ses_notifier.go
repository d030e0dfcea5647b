package ses

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"finguard/internal/config"
	"finguard/internal/domain"
	"finguard/internal/email"
	"finguard/internal/port"
)

// sendAPI is the slice of the SES client the notifier uses.
type sendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client     sendAPI
	from       string
	reviewers  []string
	consoleURL string
}

// NewSESNotifier creates an SES-backed EscalationNotifier that mails every
// configured reviewer.
func NewSESNotifier(cfg *config.EmailConfig) (port.EscalationNotifier, error) {
	if len(cfg.Reviewers) == 0 {
		return nil, errors.New("ses notifier needs at least one reviewer address")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newNotifier(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newNotifier(client sendAPI, cfg *config.EmailConfig) *sesNotifier {
	return &sesNotifier{
		client:     client,
		from:       fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		reviewers:  cfg.Reviewers,
		consoleURL: cfg.ConsoleURL,
	}
}

func (s *sesNotifier) NotifyEscalation(ctx context.Context, result *domain.ValidationResult) error {
	msg := email.EscalationMessage(result, s.consoleURL)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: s.reviewers,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &msg.Subject},
				Body: &types.Body{
					Html: &types.Content{Data: &msg.HTML},
					Text: &types.Content{Data: &msg.Text},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}
