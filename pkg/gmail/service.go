// Package gmail fetches candidate financial messages from a user's Gmail
// account using stored OAuth tokens.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	// maxResults keeps a sync call at interactive latency.
	maxResults = 25

	// maxBodyChars caps the body before the classifier sees it.
	maxBodyChars = 5000

	// financialQuery mirrors the Gmail search used by the dashboard's
	// manual sync: BNPL/EMI language, promotional subjects excluded.
	financialQuery = `subject:(("pay later") OR emi OR installment) -subject:(sale OR deal OR offer)`
)

// Message is a fetched raw email, already body-truncated.
type Message struct {
	ID      string
	Sender  string
	Subject string
	Body    string
}

// TokenUpdateFunc persists a refreshed OAuth token.
type TokenUpdateFunc func(token *oauth2.Token) error

// Service creates per-user Gmail API clients from stored tokens.
type Service struct {
	clientID     string
	clientSecret string
	logger       *slog.Logger
}

// NewService creates a Gmail service factory.
func NewService(clientID, clientSecret string, logger *slog.Logger) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}
}

// notifyTokenSource wraps an oauth2.TokenSource and invokes a callback
// whenever the access token changes, so refreshed tokens survive restarts.
type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
	logger   *slog.Logger
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil && s.logger != nil {
			s.logger.Warn("failed to persist refreshed gmail token", "error", err)
		}
	}
	return t, nil
}

func (s *Service) client(ctx context.Context, accessToken, refreshToken string, onRefresh TokenUpdateFunc) (*gmailapi.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Force a refresh attempt when a refresh token is available, the
	// stored access token's expiry is unknown.
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	cfg := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	source := &notifyTokenSource{
		src:      cfg.TokenSource(ctx, token),
		current:  token,
		callback: onRefresh,
		logger:   s.logger,
	}

	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return srv, nil
}

// FetchFinancialMessages lists messages matching the financial search query
// and returns each with sender, subject and a truncated plain-text body.
func (s *Service) FetchFinancialMessages(ctx context.Context, accessToken, refreshToken string, onRefresh TokenUpdateFunc) ([]Message, error) {
	srv, err := s.client(ctx, accessToken, refreshToken, onRefresh)
	if err != nil {
		return nil, err
	}

	listResp, err := srv.Users.Messages.List("me").
		Q(financialQuery).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	messages := make([]Message, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		full, err := srv.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to fetch message payload", "message_id", ref.Id, "error", err)
			}
			continue
		}
		messages = append(messages, Message{
			ID:      full.Id,
			Sender:  headerValue(full.Payload, "From"),
			Subject: headerValue(full.Payload, "Subject"),
			Body:    truncate(extractBody(full.Payload), maxBodyChars),
		})
	}

	return messages, nil
}

func headerValue(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the MIME tree preferring text/plain parts and falling
// back to whatever body data the payload itself carries.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if body := extractBody(part); body != "" {
			return body
		}
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
