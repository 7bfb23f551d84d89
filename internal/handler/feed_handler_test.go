package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/security"
)

// --- モック定義 ---

type mockLatestNews struct {
	latestFn func(ctx context.Context) ([]*model.News, error)
}

func (m *mockLatestNews) Latest(ctx context.Context) ([]*model.News, error) {
	return m.latestFn(ctx)
}

func sampleNews() []*model.News {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return []*model.News{
		{
			ID:        2,
			Title:     "春季大会の結果",
			Content:   "<p>U10が<strong>優勝</strong>しました</p><script>alert(1)</script>",
			Category:  model.NewsCategoryMatch,
			CreatedAt: created.Add(24 * time.Hour),
			UpdatedAt: created.Add(24 * time.Hour),
		},
		{
			ID:        1,
			Title:     "体験会のお知らせ",
			Content:   "<p>毎週土曜日に開催します</p>",
			Category:  model.NewsCategoryEvent,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func newTestFeedHandler(items []*model.News, err error) *FeedHandler {
	lister := &mockLatestNews{
		latestFn: func(ctx context.Context) ([]*model.News, error) {
			return items, err
		},
	}
	return NewFeedHandler(lister, security.NewContentSanitizer(), FeedConfig{
		SiteTitle:   "キックオフFC",
		BaseURL:     "https://club.example.com/",
		Description: "お知らせ",
	})
}

func TestFeedHandler_RSS(t *testing.T) {
	h := newTestFeedHandler(sampleNews(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rss", nil)
	w := httptest.NewRecorder()
	h.RSS(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q", ct)
	}

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatalf("generated RSS should parse: %v", err)
	}
	if feed.FeedType != "rss" {
		t.Errorf("FeedType = %q, want rss", feed.FeedType)
	}
	if feed.Title != "キックオフFC" {
		t.Errorf("Title = %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Title != "春季大会の結果" {
		t.Errorf("first item title = %q", first.Title)
	}
	if first.Link != "https://club.example.com/news/2" {
		t.Errorf("first item link = %q", first.Link)
	}
	if first.Description != "U10が優勝しました" {
		t.Errorf("description should be plain text: %q", first.Description)
	}
}

func TestFeedHandler_Atom(t *testing.T) {
	h := newTestFeedHandler(sampleNews(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/atom", nil)
	w := httptest.NewRecorder()
	h.Atom(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/atom+xml") {
		t.Errorf("Content-Type = %q", ct)
	}

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatalf("generated Atom should parse: %v", err)
	}
	if feed.FeedType != "atom" {
		t.Errorf("FeedType = %q, want atom", feed.FeedType)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(feed.Items))
	}
	if feed.Items[1].Link != "https://club.example.com/news/1" {
		t.Errorf("second item link = %q", feed.Items[1].Link)
	}
	if strings.Contains(w.Body.String(), "<script") || strings.Contains(w.Body.String(), "&lt;script") {
		t.Error("feed must not contain script content")
	}
}

func TestFeedHandler_Empty(t *testing.T) {
	h := newTestFeedHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rss", nil)
	w := httptest.NewRecorder()
	h.RSS(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatalf("empty RSS should parse: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("items = %d, want 0", len(feed.Items))
	}
}

func TestFeedHandler_ListError(t *testing.T) {
	h := newTestFeedHandler(nil, errors.New("boom"))

	req := httptest.NewRequest(http.MethodGet, "/api/atom", nil)
	w := httptest.NewRecorder()
	h.Atom(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
