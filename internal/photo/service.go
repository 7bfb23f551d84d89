// Package photo は写真ギャラリーのドメインロジックを提供する。
package photo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
	"github.com/hitoshi/kickoff/internal/storage"
)

const (
	resourceName = "写真"

	// keyPrefix はストレージ上の写真の保存先。
	keyPrefix = "photos"

	// MaxImageBytes はデコード後の画像サイズの上限。
	MaxImageBytes = 20 << 20
)

// UploadInput は写真アップロードの入力。
type UploadInput struct {
	Title       string
	Description string
	Category    string
	TakenAt     *time.Time
	FileName    string
	ContentType string
	Data        string // base64またはデータURL
}

// Service は写真のサービス層。
type Service struct {
	repo     repository.PhotoRepository
	uploader storage.Uploader
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(repo repository.PhotoRepository, uploader storage.Uploader, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		metrics:  collector,
	}
}

// List は写真を新しい順に返す。カテゴリ指定時はそのカテゴリのみ。
func (s *Service) List(ctx context.Context, filter model.PhotoFilter) ([]*model.Photo, error) {
	photos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("写真一覧の取得に失敗しました: %w", err)
	}
	return photos, nil
}

// Get は指定IDの写真を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Photo, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("写真の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError(resourceName, id)
	}
	return p, nil
}

// Upload は画像をデコードしてストレージに保存し、写真の行を作成する。
// ストレージへの保存後に行の作成が失敗した場合、保存済みオブジェクトは削除しない。
func (s *Service) Upload(ctx context.Context, in *UploadInput) (*model.Photo, error) {
	data, dataType, err := storage.DecodeBase64(in.Data)
	if err != nil {
		return nil, model.NewValidationError(map[string]string{"data": "画像データを読み取れません。"})
	}
	if len(data) > MaxImageBytes {
		return nil, model.NewValidationError(map[string]string{
			"data": fmt.Sprintf("画像サイズは%dMB以下にしてください。", MaxImageBytes>>20),
		})
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = dataType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, model.NewValidationError(map[string]string{"contentType": "画像ファイルを指定してください。"})
	}

	key := storage.NewObjectKey(keyPrefix, in.FileName)
	obj, err := s.uploader.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("画像のアップロードに失敗しました: %w", err)
	}
	s.metrics.RecordUpload(len(data))

	photo := &model.Photo{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    obj.URL,
		FileKey:     obj.Key,
		Category:    in.Category,
		TakenAt:     in.TakenAt,
	}
	id, err := s.repo.Create(ctx, photo)
	if err != nil {
		slog.Warn("photo row creation failed after upload",
			slog.String("file_key", obj.Key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("写真の登録に失敗しました: %w", err)
	}
	photo.ID = id
	return photo, nil
}

// Delete は写真の行を削除する。ストレージ上のオブジェクトは残る。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("写真の削除に失敗しました: %w", err)
	}
	return nil
}
