package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/security"
)

// LatestNewsLister はフィード生成に必要な最新お知らせの取得インターフェース。
type LatestNewsLister interface {
	Latest(ctx context.Context) ([]*model.News, error)
}

// FeedConfig はRSS/Atomフィードのサイト情報。
type FeedConfig struct {
	SiteTitle   string
	BaseURL     string
	Description string
}

// FeedHandler はお知らせのRSS/Atomフィードを生成するハンドラー。
// フィードはキャッシュせずリクエストごとに生成する。
type FeedHandler struct {
	news      LatestNewsLister
	sanitizer security.ContentSanitizer
	config    FeedConfig
	now       func() time.Time
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(news LatestNewsLister, sanitizer security.ContentSanitizer, config FeedConfig) *FeedHandler {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &FeedHandler{
		news:      news,
		sanitizer: sanitizer,
		config:    config,
		now:       time.Now,
	}
}

// RSS はRSS 2.0形式のフィードを返す。
// GET /api/rss
func (h *FeedHandler) RSS(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

// Atom はAtom形式のフィードを返す。
// GET /api/atom
func (h *FeedHandler) Atom(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}

func (h *FeedHandler) render(w http.ResponseWriter, r *http.Request, contentType string, encode func(*feeds.Feed) (string, error)) {
	items, err := h.news.Latest(r.Context())
	if err != nil {
		slog.Error("failed to list news for feed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	body, err := encode(h.buildFeed(items))
	if err != nil {
		slog.Error("failed to encode feed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

func (h *FeedHandler) buildFeed(items []*model.News) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       h.config.SiteTitle,
		Link:        &feeds.Link{Href: h.config.BaseURL + "/"},
		Description: h.config.Description,
		Id:          h.config.BaseURL + "/",
		Updated:     h.now(),
	}
	if len(items) > 0 {
		feed.Updated = items[0].UpdatedAt
	}

	for _, n := range items {
		link := fmt.Sprintf("%s/news/%d", h.config.BaseURL, n.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       n.Title,
			Link:        &feeds.Link{Href: link},
			Description: h.sanitizer.PlainText(n.Content),
			Created:     n.CreatedAt,
			Updated:     n.UpdatedAt,
		})
	}
	return feed
}
