// Package storage はオブジェクトストレージ（アップロードプロキシ）のクライアントを提供する。
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// uploadPath はアップロードAPIのパス。
const uploadPath = "/v1/storage/upload"

// ErrNotConfigured はストレージのURLまたはAPIキーが未設定であることを示す。
var ErrNotConfigured = errors.New("storage is not configured")

// Object はアップロード済みオブジェクトを表す。
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Uploader はオブジェクトをアップロードするインターフェース。
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error)
}

// Client はストレージAPIのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient はClientを生成する。httpClientがnilの場合はhttp.DefaultClientを使う。
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Configured はアップロード先が設定済みかを返す。
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Put はデータをmultipart/form-dataでアップロードし、公開URLを返す。
// キーの先頭のスラッシュは取り除く。
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	key = NormalizeKey(key)
	if key == "" {
		return nil, errors.New("storage key is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(key)),
	}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("multipartの作成に失敗しました: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("multipartの書き込みに失敗しました: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("multipartの作成に失敗しました: %w", err)
	}

	endpoint := c.baseURL + uploadPath + "?" + url.Values{"path": {key}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ストレージAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("key", key),
		)
		return nil, fmt.Errorf("ストレージAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ストレージAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("key", key),
		)
		return nil, fmt.Errorf("ストレージAPIがステータス %d を返しました: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if result.URL == "" {
		return nil, errors.New("ストレージAPIのレスポンスにURLが含まれていません")
	}

	return &Object{Key: key, URL: result.URL}, nil
}

// NormalizeKey は先頭のスラッシュを取り除いたキーを返す。
func NormalizeKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewObjectKey は衝突しないオブジェクトキーを生成する。
// 例: photos/3f0c...-team.jpg
func NewObjectKey(prefix, filename string) string {
	name := unsafeNameChars.ReplaceAllString(path.Base(filename), "_")
	name = strings.Trim(name, "_.")
	id := uuid.NewString()
	key := id
	if name != "" {
		key = id + "-" + name
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// compile-time interface check
var _ Uploader = (*Client)(nil)
