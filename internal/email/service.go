package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// Service sends submission notification emails over SMTP. Sends are
// best-effort: callers log failures and never fail the scoring response on
// them.
type Service struct {
	config Config
	client *mail.Client
}

// Config represents email service configuration. An empty Host disables
// the service.
type Config struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
	To       string `yaml:"to" json:"to"`
}

// DefaultConfig returns default email configuration.
func DefaultConfig() Config {
	return Config{
		Port: 587,
		From: "assessments@localhost",
	}
}

// NewService creates an email service. Returns an error if the SMTP client
// cannot be constructed; callers decide whether that is fatal.
func NewService(cfg Config) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("email service requires an SMTP host")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &Service{config: cfg, client: client}, nil
}

// NotifySubmission emails a plain-text summary of a stored submission to
// the configured recipient.
func (s *Service) NotifySubmission(ctx context.Context, sub models.Submission) error {
	msg := mail.NewMsg()
	if err := msg.From(s.config.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.config.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("New GTM assessment: %s (%.0f/100)",
		companyOrAnonymous(sub), sub.Result.OverallScore*100))
	msg.SetBodyString(mail.TypeTextPlain, summaryBody(sub))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification for submission %s: %w", sub.ID, err)
	}
	return nil
}

// Ping verifies the SMTP server accepts connections.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("failed to reach SMTP server: %w", err)
	}
	return s.client.Close()
}

func companyOrAnonymous(sub models.Submission) string {
	if sub.Company != "" {
		return sub.Company
	}
	return "anonymous"
}

func summaryBody(sub models.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission %s at %s\n\n", sub.ID, sub.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Company: %s\nEmail: %s\nCohort: %s\nSector: %s\nEmployees: %s\n\n",
		sub.Company, sub.Email, sub.Cohort, sub.Sector, sub.EmployeeCount)
	fmt.Fprintf(&b, "Overall score: %.0f/100\n", sub.Result.OverallScore*100)
	fmt.Fprintf(&b, "Pipeline: %.0f  Conversion: %.0f  Expansion: %.0f\n\n",
		sub.Result.LoopScores.Pipeline*100,
		sub.Result.LoopScores.Conversion*100,
		sub.Result.LoopScores.Expansion*100)

	if len(sub.Result.DetectedPatterns) > 0 {
		b.WriteString("Detected patterns:\n")
		for _, p := range sub.Result.DetectedPatterns {
			fmt.Fprintf(&b, "  - [%s] %s\n", p.Priority, p.PatternID)
		}
		b.WriteString("\n")
	}

	b.WriteString("Priority metrics:\n")
	for _, rec := range sub.Result.PriorityRecommendations {
		fmt.Fprintf(&b, "  - %s (%s): %s, score %d\n", rec.Name, rec.Loop, rec.FormattedValue, rec.NormalizedScore)
	}
	return b.String()
}
