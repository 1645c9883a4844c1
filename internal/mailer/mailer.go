package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bmanav26/E-Commerce/pkg/httpclient"
)

// Mailer sends transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetToken string) error
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// GatewayMailer delivers mail through an HTTP mail gateway.
type GatewayMailer struct {
	client        HTTPDoer
	gatewayURL    string
	from          string
	publicBaseURL string
	logger        *slog.Logger
}

// NewGatewayMailer creates a mailer backed by an HTTP mail gateway.
func NewGatewayMailer(client HTTPDoer, gatewayURL, from, publicBaseURL string, logger *slog.Logger) *GatewayMailer {
	return &GatewayMailer{
		client:        client,
		gatewayURL:    gatewayURL,
		from:          from,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ToName  string `json:"to_name,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendPasswordReset emails a password reset link. The raw token is embedded in
// the link; only its digest is ever stored server side.
func (m *GatewayMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetToken string) error {
	resetURL := fmt.Sprintf("%s/api/v1/password/reset/%s", m.publicBaseURL, resetToken)

	body := fmt.Sprintf(
		"Your password reset token is:\n\n%s\n\nIf you have not requested this email then please ignore it. The link expires in 15 minutes.",
		resetURL,
	)

	if err := m.send(ctx, sendRequest{
		From:    m.from,
		To:      toEmail,
		ToName:  toName,
		Subject: "Shop password recovery",
		Body:    body,
	}); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "password reset email sent",
		slog.String("email", toEmail),
	)

	return nil
}

func (m *GatewayMailer) send(ctx context.Context, req sendRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("call mail gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return httpclient.ParseResponseError(resp, "mail-gateway")
	}

	return nil
}
