package email

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/Fannysbth/kel1paw/internal/config"
)

// defaultTimeout bounds the SMTP exchange when no timeout is configured.
const defaultTimeout = 10 * time.Second

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendRequestReceived notifies a project owner about a new continuation request.
func (s *Service) SendRequestReceived(to, projectTitle, requesterGroup, message string) error {
	subject := fmt.Sprintf("New continuation request for \"%s\"", projectTitle)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Continuation Request</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">New Continuation Request</h2>
        <p>Group <strong>%s</strong> would like to continue your capstone project <strong>%s</strong>.</p>
        <div style="background-color: #f8f9fa; border-left: 4px solid #4a90e2; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;">%s</p>
        </div>
        <p>Sign in to review and approve or reject the request:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s/requests" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Review Request</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, requesterGroup, projectTitle, message, s.config.ClientURL)

	return s.sendEmail(to, subject, body)
}

// SendRequestApproved notifies a requester that their request won, including
// the proposal view link they now have access to.
func (s *Service) SendRequestApproved(to, projectTitle, proposalLink string) error {
	subject := fmt.Sprintf("Your request for \"%s\" was approved", projectTitle)

	linkSection := "<p>The owning group has not attached a proposal document yet.</p>"
	if proposalLink != "" {
		linkSection = fmt.Sprintf(`
        <p>You now have access to the project proposal:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Open Proposal</a>
        </div>`, proposalLink)
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Request Approved</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2e7d32;">Request Approved</h2>
        <p>Congratulations! Your request to continue <strong>%s</strong> has been approved.</p>
        %s
        <p>Any other requests you had open were closed automatically.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, projectTitle, linkSection)

	return s.sendEmail(to, subject, body)
}

// SendRequestRejected notifies a requester that the owner declined.
func (s *Service) SendRequestRejected(to, projectTitle string) error {
	subject := fmt.Sprintf("Your request for \"%s\" was declined", projectTitle)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Request Declined</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #e74c3c;">Request Declined</h2>
        <p>The owning group has declined your request to continue <strong>%s</strong>.</p>
        <p>You can browse the catalog and request a different project:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s/projects" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Browse Projects</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, projectTitle, s.config.ClientURL)

	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	// Create the email message
	headers := make(map[string]string)
	headers["From"] = s.config.SMTPFrom
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	// Build the message
	var message bytes.Buffer
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server",
		"address", addr,
		"host", s.config.SMTPHost,
		"port", s.config.SMTPPort,
	)

	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		slog.Error("Failed to connect to SMTP server",
			"address", addr,
			"error", err,
		)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		err := conn.Close()
		if err != nil {
			slog.Error("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	// The deadline covers the whole exchange so a stalled server cannot pin
	// the notification goroutine.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		err := client.Close()
		if err != nil {
			slog.Error("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Authenticate only if credentials are provided, local relays like
	// Mailpit accept unauthenticated mail
	if s.config.SMTPUser != "" && s.config.SMTPPass != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPass, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		slog.Error("Failed to set sender",
			"from", s.config.SMTPFrom,
			"error", err,
		)
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		slog.Error("Failed to set recipient",
			"to", to,
			"error", err,
		)
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		slog.Error("Failed to initiate data transfer", "error", err)
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		err := wc.Close()
		if err != nil {
			slog.Error("Failed to close write closer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		slog.Error("Failed to write message", "error", err)
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to)

	return nil
}
