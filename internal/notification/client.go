// Package notification はサイト管理者（オーナー）への通知送信クライアントを提供する。
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	sendPath = "/webdevtoken.v1.WebDevService/SendNotification"

	// MaxTitleLength は通知タイトルの最大文字数。
	MaxTitleLength = 1200
	// MaxContentLength は通知本文の最大文字数。
	MaxContentLength = 20000
)

// ErrNotConfigured は通知先が未設定であることを示す。
var ErrNotConfigured = errors.New("notification service is not configured")

// Notifier はオーナー通知のインターフェース。
type Notifier interface {
	Notify(ctx context.Context, title, content string) error
}

// Client は通知サービスのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient はClientを生成する。
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

// Configured は通知先が設定済みかを返す。
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Notify はタイトルと本文をオーナーに送信する。
// 前後の空白は除去し、空のタイトル・本文や上限超過はエラーとする。
func (c *Client) Notify(ctx context.Context, title, content string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validatePayload(title, content); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return fmt.Errorf("通知ペイロードの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connect-Protocol-Version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("通知APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("通知APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", strings.TrimSpace(string(detail))),
		)
		return fmt.Errorf("通知APIがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}

func validatePayload(title, content string) error {
	if title == "" {
		return errors.New("notification title is required")
	}
	if content == "" {
		return errors.New("notification content is required")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return fmt.Errorf("notification title must be at most %d characters, got %d", MaxTitleLength, n)
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return fmt.Errorf("notification content must be at most %d characters, got %d", MaxContentLength, n)
	}
	return nil
}

// compile-time interface check
var _ Notifier = (*Client)(nil)
