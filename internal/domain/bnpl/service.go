package bnpl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/credwise/credwise-api/pkg/gmail"
	"github.com/credwise/credwise-api/pkg/metrics"
)

var (
	// ErrRecordNotFound is returned when a record does not exist or belongs
	// to another user.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNoGmailAccount is returned when the user has no linked Google
	// account to sync from.
	ErrNoGmailAccount = errors.New("no linked gmail account")
)

var tracer = otel.Tracer("credwise/bnpl")

// MessageSource fetches candidate financial messages from a mailbox.
type MessageSource interface {
	FetchFinancialMessages(ctx context.Context, accessToken, refreshToken string, onRefresh gmail.TokenUpdateFunc) ([]gmail.Message, error)
}

// TokenStore loads and persists Gmail OAuth tokens for a user.
type TokenStore interface {
	GmailToken(ctx context.Context, userID uuid.UUID) (accessToken, refreshToken string, err error)
	SaveGmailToken(ctx context.Context, userID uuid.UUID, accessToken string, expiry time.Time) error
}

// SyncResult summarizes one sync pass over the mailbox.
type SyncResult struct {
	Synced        int `json:"synced"`
	BNPLCount     int `json:"bnpl_count"`
	FilteredCount int `json:"filtered_count"`
	SkippedCount  int `json:"skipped_count"`
}

// Service orchestrates mail sync: fetch, dedup, classify, extract, store.
type Service struct {
	repo       Repository
	source     MessageSource
	tokens     TokenStore
	classifier *Classifier
	extractor  *Extractor
	logger     *slog.Logger
}

// NewService creates a new BNPL service.
func NewService(repo Repository, source MessageSource, tokens TokenStore, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		source:     source,
		tokens:     tokens,
		classifier: NewClassifier(),
		extractor:  NewExtractor(),
		logger:     logger,
	}
}

// SyncMailbox runs one pass over the user's recent financial mail. Synced
// counts every fetched message, so it always equals the sum of the stored,
// filtered and skipped counts. Messages already recorded are skipped before
// classification, making repeated syncs idempotent.
func (s *Service) SyncMailbox(ctx context.Context, userID uuid.UUID) (*SyncResult, error) {
	ctx, span := tracer.Start(ctx, "bnpl.SyncMailbox")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	accessToken, refreshToken, err := s.tokens.GmailToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gmail token: %w", err)
	}

	onRefresh := func(token *oauth2.Token) error {
		return s.tokens.SaveGmailToken(ctx, userID, token.AccessToken, token.Expiry)
	}

	messages, err := s.source.FetchFinancialMessages(ctx, accessToken, refreshToken, onRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	result := &SyncResult{}
	for _, msg := range messages {
		result.Synced++

		processed, err := s.repo.IsMessageProcessed(ctx, userID, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check message %s: %w", msg.ID, err)
		}
		if processed {
			result.SkippedCount++
			metrics.EmailsSkipped.Inc()
			continue
		}

		accepted, confidence := s.classifier.ClassifyWithConfidence(msg.Sender, msg.Subject, msg.Body)
		if !accepted {
			result.FilteredCount++
			metrics.EmailsFiltered.WithLabelValues("not_financial").Inc()
			continue
		}

		obligation := s.extractor.Extract(msg.Sender, msg.Subject, msg.Body)
		if !obligation.HasAmount() {
			// Financial chatter without a concrete amount is not an
			// obligation worth tracking.
			result.FilteredCount++
			metrics.EmailsFiltered.WithLabelValues("no_amount").Inc()
			continue
		}

		rec := &Record{
			UserID:         userID,
			GmailMessageID: msg.ID,
			Vendor:         obligation.Vendor,
			Amount:         *obligation.Amount,
			Installments:   obligation.Installments,
			DueDate:        obligation.DueDate,
			Confidence:     confidence,
			Subject:        msg.Subject,
		}

		inserted, err := s.repo.InsertRecord(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("failed to store record for message %s: %w", msg.ID, err)
		}
		if !inserted {
			// A concurrent sync won the insert race.
			result.SkippedCount++
			metrics.EmailsSkipped.Inc()
			continue
		}
		result.BNPLCount++
		metrics.RecordsStored.WithLabelValues(rec.Vendor).Inc()

		s.logger.Info("stored bnpl record",
			slog.String("vendor", rec.Vendor),
			slog.String("due_date", rec.DueDate),
			slog.Int("installments", rec.Installments),
		)
	}

	metrics.EmailsSynced.Add(float64(result.Synced))
	span.SetAttributes(
		attribute.Int("sync.fetched", len(messages)),
		attribute.Int("sync.stored", result.BNPLCount),
		attribute.Int("sync.skipped", result.SkippedCount),
	)

	s.logger.Info("mailbox sync complete",
		slog.Int("fetched", len(messages)),
		slog.Int("synced", result.Synced),
		slog.Int("stored", result.BNPLCount),
		slog.Int("filtered", result.FilteredCount),
		slog.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// Records returns the user's stored obligations, newest first.
func (s *Service) Records(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	return s.repo.ListByUser(ctx, userID)
}

// DeleteRecord removes one of the user's records.
func (s *Service) DeleteRecord(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, userID, id)
}
