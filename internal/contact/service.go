// Package contact はお問い合わせフォームのドメインロジックを提供する。
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/notification"
	"github.com/hitoshi/kickoff/internal/repository"
)

// SubmitInput はお問い合わせの送信内容。
type SubmitInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// Service はお問い合わせのサービス層。
type Service struct {
	repo     repository.ContactRepository
	notifier notification.Notifier
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceを生成する。notifierがnilの場合は通知を送らない。
func NewService(
	repo repository.ContactRepository,
	notifier notification.Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  collector,
		logger:   logger,
	}
}

// Submit はお問い合わせを保存し、オーナーに通知する。
// 通知の失敗は送信者には返さない。
func (s *Service) Submit(ctx context.Context, in *SubmitInput) (int64, error) {
	c := &model.Contact{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("お問い合わせの保存に失敗しました: %w", err)
	}

	s.notify(ctx, id, c)
	return id, nil
}

// List はお問い合わせを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Contact, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("お問い合わせ一覧の取得に失敗しました: %w", err)
	}
	return contacts, nil
}

func (s *Service) notify(ctx context.Context, id int64, c *model.Contact) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Notify(ctx, notificationTitle(c), notificationContent(c))
	if errors.Is(err, notification.ErrNotConfigured) {
		return
	}
	s.metrics.RecordNotification(err == nil)
	if err != nil {
		s.logger.Warn("failed to notify owner of contact",
			slog.Int64("contact_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func notificationTitle(c *model.Contact) string {
	return fmt.Sprintf("お問い合わせ: %s", c.Subject)
}

func notificationContent(c *model.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "お名前: %s\n", c.Name)
	fmt.Fprintf(&b, "メール: %s\n", c.Email)
	if c.Phone != "" {
		fmt.Fprintf(&b, "電話番号: %s\n", c.Phone)
	}
	fmt.Fprintf(&b, "\n%s", c.Message)
	return b.String()
}
