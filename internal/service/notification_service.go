package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/email"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

var stripTags = bluemonday.StrictPolicy()

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "receipt"}}<p>Hi {{.Nomination.NominatorName}},</p>
<p>Thank you for nominating <strong>{{.Nomination.FirmName}}</strong> ({{.Nomination.CityName}}, {{.Nomination.StateName}}). Our editors review every nomination and will let you know the outcome.</p>{{end}}

{{define "alert"}}<p>A new nomination is waiting for review.</p>
<ul>
<li>Firm: {{.Nomination.FirmName}}</li>
<li>Location: {{.Nomination.CityName}}, {{.Nomination.StateName}}</li>
<li>Nominated by: {{.Nomination.NominatorName}} &lt;{{.Nomination.NominatorEmail}}&gt;</li>
</ul>
<p><a href="{{.AdminURL}}">Review nominations</a></p>{{end}}

{{define "approved"}}<p>Hi {{.Nomination.NominatorName}},</p>
<p>Good news: <strong>{{.Nomination.FirmName}}</strong> is now listed in the directory.</p>
{{if .FirmURL}}<p><a href="{{.FirmURL}}">View the listing</a></p>{{end}}{{end}}

{{define "rejected"}}<p>Hi {{.Nomination.NominatorName}},</p>
<p>Thank you for nominating <strong>{{.Nomination.FirmName}}</strong>. After review we are not able to list the firm at this time.</p>{{end}}

{{define "digest"}}<p>{{.Total}} nomination(s) are waiting for review.</p>
<ul>{{range .Pending}}
<li>{{.FirmName}} ({{.CityName}}, {{.StateName}}) nominated by {{.NominatorName}}</li>{{end}}
</ul>
{{if gt .More 0}}<p>and {{.More}} more.</p>{{end}}
<p><a href="{{.AdminURL}}">Review nominations</a></p>{{end}}
`))

type emailData struct {
	Nomination *domain.Nomination
	Pending    []domain.Nomination
	Total      int64
	More       int64
	AdminURL   string
	FirmURL    string
}

// NotificationService composes and sends nomination emails
type NotificationService struct {
	sender     email.Sender
	adminRepo  *repository.AdminUserRepository
	recipients []string
	baseURL    string
	logger     *zap.Logger
}

// NewNotificationService creates a new NotificationService instance.
// recipients are always alerted in addition to active admin users.
func NewNotificationService(
	sender email.Sender,
	adminRepo *repository.AdminUserRepository,
	recipients []string,
	baseURL string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		sender:     sender,
		adminRepo:  adminRepo,
		recipients: recipients,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// NominationReceived confirms receipt to the nominator and alerts reviewers
func (s *NotificationService) NominationReceived(ctx context.Context, n *domain.Nomination) error {
	data := emailData{Nomination: n, AdminURL: s.baseURL + "/admin/nominations"}

	receipt, err := s.compose("receipt", data, []string{n.NominatorEmail}, "We received your nomination")
	if err != nil {
		return err
	}
	receipt.Tags = map[string]string{"category": "nomination_receipt"}
	if err := s.sender.Send(ctx, receipt); err != nil {
		return fmt.Errorf("failed to send nomination receipt: %w", err)
	}

	admins, err := s.adminRecipients(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		s.logger.Warn("no admin recipients for nomination alert", zap.String("nomination_id", n.ID.String()))
		return nil
	}
	alert, err := s.compose("alert", data, admins, "New nomination: "+n.FirmName)
	if err != nil {
		return err
	}
	alert.ReplyTo = n.NominatorEmail
	alert.Tags = map[string]string{"category": "nomination_alert"}
	if err := s.sender.Send(ctx, alert); err != nil {
		return fmt.Errorf("failed to send nomination alert: %w", err)
	}
	return nil
}

// NominationApproved tells the nominator the firm is listed
func (s *NotificationService) NominationApproved(ctx context.Context, n *domain.Nomination, firm *domain.Firm) error {
	data := emailData{Nomination: n}
	if firm != nil {
		data.FirmURL = s.baseURL + "/firms/" + firm.Slug
	}
	msg, err := s.compose("approved", data, []string{n.NominatorEmail}, n.FirmName+" is now listed")
	if err != nil {
		return err
	}
	msg.Tags = map[string]string{"category": "nomination_approved"}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send approval email: %w", err)
	}
	return nil
}

// NominationRejected tells the nominator the firm will not be listed
func (s *NotificationService) NominationRejected(ctx context.Context, n *domain.Nomination) error {
	msg, err := s.compose("rejected", emailData{Nomination: n}, []string{n.NominatorEmail}, "Your nomination of "+n.FirmName)
	if err != nil {
		return err
	}
	msg.Tags = map[string]string{"category": "nomination_rejected"}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send rejection email: %w", err)
	}
	return nil
}

// PendingDigest emails reviewers the pending nominations. Nothing is sent
// when the queue is empty.
func (s *NotificationService) PendingDigest(ctx context.Context, pending []domain.Nomination, total int64) (bool, error) {
	if total == 0 {
		return false, nil
	}
	admins, err := s.adminRecipients(ctx)
	if err != nil {
		return false, err
	}
	if len(admins) == 0 {
		s.logger.Warn("no admin recipients for nomination digest")
		return false, nil
	}

	data := emailData{
		Pending:  pending,
		Total:    total,
		More:     total - int64(len(pending)),
		AdminURL: s.baseURL + "/admin/nominations",
	}
	msg, err := s.compose("digest", data, admins, fmt.Sprintf("%d nominations waiting for review", total))
	if err != nil {
		return false, err
	}
	msg.Tags = map[string]string{"category": "nomination_digest"}
	if err := s.sender.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("failed to send nomination digest: %w", err)
	}
	return true, nil
}

// adminRecipients merges configured addresses with active admin users
func (s *NotificationService) adminRecipients(ctx context.Context) ([]string, error) {
	out := append([]string{}, s.recipients...)
	if s.adminRepo != nil {
		emails, err := s.adminRepo.ListActiveEmails(ctx, domain.AdminRoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to list admin emails: %w", err)
		}
		out = append(out, emails...)
	}
	return out, nil
}

func (s *NotificationService) compose(name string, data emailData, to []string, subject string) (*email.Message, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", name, err)
	}
	body := strings.TrimSpace(buf.String())
	return &email.Message{
		To:      to,
		Subject: subject,
		HTML:    body,
		Text:    htmlToText(body),
	}, nil
}

// htmlToText strips tags from the rendered templates for the plain-text part
func htmlToText(body string) string {
	text := html.UnescapeString(stripTags.Sanitize(body))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
