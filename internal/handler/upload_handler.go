package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/storage"
)

// MaxUploadBytes はアップロードリクエストボディの上限。
const MaxUploadBytes = 50 << 20

// UploadHandler はログインユーザー向けのファイルアップロードプロキシ。
type UploadHandler struct {
	uploader storage.Uploader
	metrics  metrics.MetricsCollector
}

// NewUploadHandler はUploadHandlerを生成する。
func NewUploadHandler(uploader storage.Uploader, collector metrics.MetricsCollector) *UploadHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &UploadHandler{uploader: uploader, metrics: collector}
}

type uploadRequest struct {
	Key         string `json:"key"`
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Upload はbase64のデータをデコードしてストレージに保存する。
// POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r.Context()) == nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError(""))
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUploadBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteErrorResponse(w, model.NewBadRequestError("ファイルサイズが大きすぎます。"))
			return
		}
		middleware.WriteErrorResponse(w, model.NewBadRequestError("リクエストの形式が正しくありません。"))
		return
	}

	key := storage.NormalizeKey(req.Key)
	if key == "" {
		middleware.WriteErrorResponse(w, model.NewValidationError(map[string]string{"key": "必須項目です。"}))
		return
	}

	data, detected, err := storage.DecodeBase64(req.Data)
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError(map[string]string{"data": "base64形式のデータを指定してください。"}))
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = detected
	}

	obj, err := h.uploader.Put(r.Context(), key, data, contentType)
	if err != nil {
		slog.Error("upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	h.metrics.RecordUpload(len(data))

	writeJSON(w, http.StatusOK, uploadResponse{URL: obj.URL, Key: obj.Key})
}
