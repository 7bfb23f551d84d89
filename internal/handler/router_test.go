package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/security"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	testUser  = &model.User{ID: 10, OpenID: "open-user", Name: "保護者A", Role: model.RoleUser}
	testAdmin = &model.User{ID: 1, OpenID: "open-owner", Name: "監督", Role: model.RoleAdmin}
)

func testRouterDeps(t *testing.T, services *Services) *RouterDeps {
	t.Helper()
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    100,
		SubmissionRate:  0.1,
		SubmissionBurst: 1,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(limiter.Stop)

	return &RouterDeps{
		UserResolver:      cookieResolver{userToken: testUser, adminToken: testAdmin},
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       limiter,
		Authenticator:     &mockAuthenticator{ttl: time.Hour},
		Services:          services,
		Uploader:          &mockUploader{},
		Sanitizer:         security.NewContentSanitizer(),
		FeedConfig:        FeedConfig{SiteTitle: "キックオフFC", BaseURL: "https://club.example.com"},
		DB:                &mockPinger{},
	}
}

func newTestRouter(t *testing.T, services *Services) http.Handler {
	t.Helper()
	return NewRouter(testRouterDeps(t, services))
}

// query はクエリプロシージャをGETで呼び出す。
func query(h http.Handler, name, input, token string) *httptest.ResponseRecorder {
	target := "/api/trpc/" + name
	if input != "" {
		target += "?input=" + url.QueryEscape(input)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// mutate はミューテーションプロシージャをPOSTで呼び出す。
func mutate(h http.Handler, name, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/trpc/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type resultEnvelope struct {
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env resultEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if err := json.Unmarshal(env.Result.Data, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Result.Data, err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var env middleware.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	return env.Error
}

// --- 補助エンドポイント ---

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_Health_DatabaseDown(t *testing.T) {
	deps := testRouterDeps(t, newMockServices())
	deps.DB = &mockPinger{err: errors.New("database unavailable")}
	h := NewRouter(deps)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := testRouterDeps(t, newMockServices())
	deps.Metrics = metrics.NewCollector(reg)
	deps.Gatherer = reg
	h := NewRouter(deps)

	query(h, "news.list", "", "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "kickoff_procedure_calls_total") {
		t.Error("metrics output should contain procedure call counter")
	}
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := query(h, "news.list", "", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_Feeds(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	for _, path := range []string{"/api/rss", "/api/atom"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

// --- 認証 ---

func TestRouter_AuthMe(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := query(h, "auth.me", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"data":null`) {
		t.Errorf("anonymous auth.me should return null: %s", w.Body.String())
	}

	w = query(h, "auth.me", "", userToken)
	var user model.User
	decodeData(t, w, &user)
	if user.ID != testUser.ID || user.Role != model.RoleUser {
		t.Errorf("user = %+v", user)
	}

	// 不正なCookieは未ログインとして扱う
	w = query(h, "auth.me", "", "forged")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"data":null`) {
		t.Errorf("forged cookie: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_AuthLogout_ClearsCookie(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := mutate(h, "auth.logout", "", userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie should be cleared")
	}
	var out struct {
		Success bool `json:"success"`
	}
	decodeData(t, w, &out)
	if !out.Success {
		t.Error("success should be true")
	}
}

// --- 権限レベル ---

func TestRouter_TierGating(t *testing.T) {
	tests := []struct {
		name      string
		procedure string
		body      string
		token     string
		want      int
	}{
		{"admin procedure anonymous", "news.create", `{"title":"t","content":"c"}`, "", http.StatusUnauthorized},
		{"admin procedure user", "news.create", `{"title":"t","content":"c"}`, userToken, http.StatusForbidden},
		{"admin procedure admin", "news.create", `{"title":"t","content":"c"}`, adminToken, http.StatusOK},
		{"protected procedure anonymous", "bbs.create", `{"title":"t","content":"c"}`, "", http.StatusUnauthorized},
		{"protected procedure user", "bbs.create", `{"title":"t","content":"c"}`, userToken, http.StatusOK},
		{"protected procedure admin", "bbsComments.create", `{"postId":1,"content":"c"}`, adminToken, http.StatusOK},
		{"public mutation anonymous", "contact.submit", `{"name":"a","email":"a@example.com","subject":"s","message":"m"}`, "", http.StatusOK},
		{"admin list user", "contact.list", "", userToken, http.StatusMethodNotAllowed},
		{"schedule create user", "schedules.create", `{"eventDate":"2026-05-01","grades":["U9"]}`, userToken, http.StatusForbidden},
		{"photo upload anonymous", "photos.upload", `{}`, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, newMockServices())
			w := mutate(h, tt.procedure, tt.body, tt.token)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body=%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_AdminQueryRequiresAdmin(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	if w := query(h, "contact.list", "", userToken); w.Code != http.StatusForbidden {
		t.Errorf("user: status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if w := query(h, "contact.list", "", adminToken); w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_BbsCreate_UsesCurrentUser(t *testing.T) {
	services := newMockServices()
	var gotUser *model.User
	services.Bbs = &mockBbsService{
		createPostFn: func(ctx context.Context, user *model.User, title, content string) (*model.BbsPost, error) {
			gotUser = user
			return &model.BbsPost{ID: 5, AuthorID: user.ID, Title: title}, nil
		},
	}
	h := newTestRouter(t, services)

	w := mutate(h, "bbs.create", `{"json":{"title":"練習試合","content":"参加者募集"}}`, userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if gotUser == nil || gotUser.ID != testUser.ID {
		t.Errorf("author = %+v, want current user", gotUser)
	}
}

func TestRouter_BbsDelete_Forbidden(t *testing.T) {
	services := newMockServices()
	services.Bbs = &mockBbsService{
		deletePostFn: func(ctx context.Context, user *model.User, id int64) error {
			return model.NewForbiddenError("自分の投稿のみ削除できます。")
		},
	}
	h := newTestRouter(t, services)

	w := mutate(h, "bbs.delete", `{"id":3}`, userToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if got := decodeError(t, w); got.Code != model.ErrCodeForbidden {
		t.Errorf("code = %q", got.Code)
	}
}

// --- 入力検証 ---

func TestRouter_ScheduleGradesValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing grades", `{"eventDate":"2026-05-01"}`, "grades"},
		{"empty grades", `{"eventDate":"2026-05-01","grades":[]}`, "grades"},
		{"six grades", `{"eventDate":"2026-05-01","grades":["U7","U8","U9","U10","U11","U12"]}`, "grades"},
		{"duplicate", `{"eventDate":"2026-05-01","grades":["U9","U9"]}`, "grades"},
		{"unknown tag", `{"eventDate":"2026-05-01","grades":["U13"]}`, "grades[0]"},
		{"missing date", `{"grades":["U9"]}`, "eventDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			services := newMockServices()
			services.Schedule = &mockScheduleService{
				createFn: func(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error) {
					called = true
					return &model.Schedule{}, nil
				},
			}
			h := newTestRouter(t, services)

			w := mutate(h, "schedules.create", tt.body, adminToken)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusBadRequest, w.Body.String())
			}
			body := decodeError(t, w)
			if _, ok := body.Fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want %q", body.Fields, tt.wantField)
			}
			if called {
				t.Error("service must not be called for invalid input")
			}
		})
	}
}

func TestRouter_ScheduleCreate_GradesRoundTrip(t *testing.T) {
	services := newMockServices()
	var got *model.ScheduleInput
	services.Schedule = &mockScheduleService{
		createFn: func(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error) {
			got = in
			return &model.Schedule{ID: 8, EventDate: in.EventDate, Grades: in.Grades.String()}, nil
		},
	}
	h := newTestRouter(t, services)

	w := mutate(h, "schedules.create", `{"eventDate":"2026-05-01","eventType":"match","grades":["U7","U8","U9"]}`, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if got.EventType != model.EventTypeMatch {
		t.Errorf("event type = %q", got.EventType)
	}
	if !got.EventDate.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("event date = %v", got.EventDate)
	}

	var out model.Schedule
	decodeData(t, w, &out)
	if out.Grades != "U7,U8,U9" {
		t.Errorf("grades = %q, want %q", out.Grades, "U7,U8,U9")
	}
}

func TestRouter_ScheduleUpdate_OptionalGrades(t *testing.T) {
	services := newMockServices()
	var got *model.SchedulePatch
	services.Schedule = &mockScheduleService{
		updateFn: func(ctx context.Context, id int64, patch *model.SchedulePatch) error {
			got = patch
			return nil
		},
	}
	h := newTestRouter(t, services)

	w := mutate(h, "schedules.update", `{"id":4,"venue":"市民グラウンド"}`, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body=%s)", w.Code, w.Body.String())
	}
	if got.Grades != nil {
		t.Errorf("grades should be unchanged: %v", got.Grades)
	}
	if got.Venue == nil || *got.Venue != "市民グラウンド" {
		t.Errorf("venue = %v", got.Venue)
	}

	w = mutate(h, "schedules.update", `{"id":4,"grades":["U10","U11"]}`, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body=%s)", w.Code, w.Body.String())
	}
	if got.Grades.String() != "U10,U11" {
		t.Errorf("grades = %q", got.Grades.String())
	}
}

func TestRouter_MatchResultsList_Filters(t *testing.T) {
	services := newMockServices()
	var got model.MatchResultFilter
	services.Matches = &mockMatchService{
		listFn: func(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error) {
			got = filter
			return []*model.MatchResult{}, nil
		},
	}
	h := newTestRouter(t, services)

	w := query(h, "matchResults.list", `{"grade":"U10","matchType":"cup","startDate":"2026-04-01","endDate":"2026-04-30"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body=%s)", w.Code, w.Body.String())
	}
	if got.Grade != "U10" || got.MatchType != model.MatchTypeCup {
		t.Errorf("filter = %+v", got)
	}
	if got.StartDate == nil || got.EndDate == nil {
		t.Fatal("dates should be set")
	}
	if got.EndDate.Day() != 30 {
		t.Errorf("end date = %v", got.EndDate)
	}

	w = query(h, "matchResults.list", `{"matchType":"league"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown match type: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRouter_Statistics(t *testing.T) {
	services := newMockServices()
	services.Matches = &mockMatchService{
		statisticsFn: func(ctx context.Context, grade string) (*model.MatchStatistics, error) {
			if grade != "U12" {
				t.Errorf("grade = %q", grade)
			}
			return &model.MatchStatistics{Total: 4, Wins: 3, Losses: 1, WinRate: 75}, nil
		},
	}
	h := newTestRouter(t, services)

	w := query(h, "statistics.matchResults", `{"json":{"grade":"U12"}}`, "")
	var stats model.MatchStatistics
	decodeData(t, w, &stats)
	if stats.Wins != 3 || stats.WinRate != 75 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRouter_NewsGetById_NotFound(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := query(h, "news.getById", `{"id":99}`, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := decodeError(t, w); got.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q", got.Code)
	}

	w = query(h, "news.getById", `{"id":0}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("id=0: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRouter_ContactSubmit_Validation(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	w := mutate(h, "contact.submit", `{"name":"a","email":"not-an-email","subject":"s","message":"m"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := decodeError(t, w); body.Fields["email"] == "" {
		t.Errorf("fields = %v, want email", body.Fields)
	}
}

func TestRouter_ContactSubmit_RateLimited(t *testing.T) {
	h := newTestRouter(t, newMockServices())
	body := `{"name":"a","email":"a@example.com","subject":"s","message":"m"}`

	if w := mutate(h, "contact.submit", body, ""); w.Code != http.StatusOK {
		t.Fatalf("first submit: status = %d", w.Code)
	}
	w := mutate(h, "contact.submit", body, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}

	// 他のプロシージャは書き込み制限の対象外
	if w := query(h, "news.list", "", ""); w.Code != http.StatusOK {
		t.Errorf("news.list: status = %d", w.Code)
	}
}

func TestRouter_AdminPassword(t *testing.T) {
	services := newMockServices()
	services.Admin = &mockAdminService{
		verifyFn: func(ctx context.Context, password string) error {
			if password != "admin1234" {
				return model.NewUnauthorizedError("パスワードが正しくありません。")
			}
			return nil
		},
	}
	h := newTestRouter(t, services)

	if w := mutate(h, "admin.verifyPassword", `{"password":"admin1234"}`, ""); w.Code != http.StatusOK {
		t.Errorf("correct password: status = %d", w.Code)
	}

	h = newTestRouter(t, services)
	if w := mutate(h, "admin.verifyPassword", `{"password":"nope"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRouter_UnknownProcedureAndMethod(t *testing.T) {
	h := newTestRouter(t, newMockServices())

	if w := query(h, "news.archive", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := query(h, "news.create", "", adminToken); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET mutation: status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w := mutate(h, "news.list", "", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST query: status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRouter_InternalErrorHidesDetail(t *testing.T) {
	services := newMockServices()
	services.News = &mockNewsService{
		listFn: func(ctx context.Context, filter model.NewsFilter) ([]*model.News, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	h := newTestRouter(t, services)

	w := query(h, "news.list", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal detail must not leak")
	}
}

// --- アップロード ---

func TestRouter_Upload(t *testing.T) {
	h := newTestRouter(t, newMockServices())
	body := `{"key":"/uploads/team.png","data":"aGVsbG8=","contentType":"image/png"}`

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: userToken})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
	}

	var out uploadResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Key != "uploads/team.png" || out.URL != "https://cdn.example.com/uploads/team.png" {
		t.Errorf("response = %+v", out)
	}
}

// --- CSRF ---

func TestRouter_CSRF(t *testing.T) {
	deps := testRouterDeps(t, newMockServices())
	deps.CSRFEnabled = true
	h := NewRouter(deps)

	// トークン取得
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("csrf-token: status = %d", w.Code)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&tok); err != nil || tok.Token == "" {
		t.Fatalf("token = %q, err = %v", tok.Token, err)
	}

	// トークンなしのミューテーションは拒否
	if w := mutate(h, "auth.logout", "", ""); w.Code != http.StatusForbidden {
		t.Errorf("without token: status = %d, want %d", w.Code, http.StatusForbidden)
	}

	// Cookieとヘッダーが一致すれば許可
	req := httptest.NewRequest(http.MethodPost, "/api/trpc/auth.logout", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: tok.Token})
	req.Header.Set("X-CSRF-Token", tok.Token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want %d", w.Code, http.StatusOK)
	}

	// クエリはトークン不要
	if w := query(h, "news.list", "", ""); w.Code != http.StatusOK {
		t.Errorf("query: status = %d", w.Code)
	}
}
