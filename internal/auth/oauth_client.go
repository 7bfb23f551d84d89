package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	exchangeTokenPath      = "/webdev.v1.WebDevAuthPublicService/ExchangeToken"
	getUserInfoPath        = "/webdev.v1.WebDevAuthPublicService/GetUserInfo"
	getUserInfoWithJWTPath = "/webdev.v1.WebDevAuthPublicService/GetUserInfoWithJwt"

	oauthRequestTimeout = 30 * time.Second
)

// ErrOAuthNotConfigured はOAuthサーバーURLが設定されていないことを示す。
var ErrOAuthNotConfigured = errors.New("oauth server url is not configured")

// TokenResponse は認可コード交換のレスポンス。
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
}

// UserInfo はIdPから取得したユーザープロフィール。
type UserInfo struct {
	OpenID      string   `json:"openId"`
	ProjectID   string   `json:"projectId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Platform    string   `json:"platform"`
	Platforms   []string `json:"platforms"`
	LoginMethod string   `json:"loginMethod"`
}

// IdentityProvider は外部IdPとの通信インターフェース。
type IdentityProvider interface {
	// ExchangeCode は認可コードをアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error)
	// GetUserInfo はアクセストークンでユーザー情報を取得する。
	GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
	// GetUserInfoWithJWT はセッショントークンを提示してユーザー情報を取得する。
	GetUserInfoWithJWT(ctx context.Context, jwtToken string) (*UserInfo, error)
}

// OAuthClient はIdPのJSON POSTエンドポイントを呼び出すクライアント。
// リトライは行わない。
type OAuthClient struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

// NewOAuthClient はOAuthClientを生成する。
func NewOAuthClient(baseURL, appID string) *OAuthClient {
	return &OAuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		httpClient: &http.Client{Timeout: oauthRequestTimeout},
	}
}

// WithTimeout はリクエストタイムアウトを変更したOAuthClientを返す。0以下の場合は変更しない。
func (c *OAuthClient) WithTimeout(d time.Duration) *OAuthClient {
	if d > 0 {
		c.httpClient = &http.Client{Timeout: d}
	}
	return c
}

// DecodeState はstateパラメータ（base64エンコードされたリダイレクトURI）をデコードする。
func DecodeState(state string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(state)
		if err != nil {
			return "", fmt.Errorf("invalid state: %w", err)
		}
	}
	return string(decoded), nil
}

// ExchangeCode は認可コードをアクセストークンに交換する。
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error) {
	redirectURI, err := DecodeState(state)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	err = c.post(ctx, exchangeTokenPath, map[string]string{
		"clientId":    c.appID,
		"grantType":   "authorization_code",
		"code":        code,
		"redirectUri": redirectURI,
	}, &tokenResp)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.New("empty access token in response")
	}
	return &tokenResp, nil
}

// GetUserInfo はアクセストークンでユーザー情報を取得する。
func (c *OAuthClient) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	if err := c.post(ctx, getUserInfoPath, map[string]string{"accessToken": accessToken}, &info); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.OpenID == "" {
		return nil, errors.New("empty openId in user info response")
	}
	return &info, nil
}

// GetUserInfoWithJWT はセッショントークンを提示してユーザー情報を取得する。
func (c *OAuthClient) GetUserInfoWithJWT(ctx context.Context, jwtToken string) (*UserInfo, error) {
	var info UserInfo
	err := c.post(ctx, getUserInfoWithJWTPath, map[string]string{
		"jwtToken":  jwtToken,
		"projectId": c.appID,
	}, &info)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info with jwt: %w", err)
	}
	if info.OpenID == "" {
		return nil, errors.New("empty openId in user info response")
	}
	return &info, nil
}

func (c *OAuthClient) post(ctx context.Context, path string, payload any, out any) error {
	if c.baseURL == "" {
		return ErrOAuthNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// loginMethodPriority はプラットフォーム識別子からログイン方法を決める優先順位。
var loginMethodPriority = []struct {
	match  []string
	method string
}{
	{[]string{"email"}, "email"},
	{[]string{"google"}, "google"},
	{[]string{"apple"}, "apple"},
	{[]string{"microsoft", "azure"}, "microsoft"},
	{[]string{"github"}, "github"},
}

// DeriveLoginMethod はユーザー情報からログイン方法タグを決定する。
// 明示的なloginMethodがあればそれを優先し、なければプラットフォーム一覧から優先順位で選ぶ。
// 該当がない場合は最初のプラットフォームを小文字化して返す。
func DeriveLoginMethod(info *UserInfo) string {
	if info.LoginMethod != "" {
		return info.LoginMethod
	}

	platforms := info.Platforms
	if len(platforms) == 0 && info.Platform != "" {
		platforms = []string{info.Platform}
	}
	if len(platforms) == 0 {
		return ""
	}

	lowered := make([]string, len(platforms))
	for i, p := range platforms {
		lowered[i] = strings.ToLower(p)
	}

	for _, rule := range loginMethodPriority {
		for _, p := range lowered {
			for _, m := range rule.match {
				if strings.Contains(p, m) {
					return rule.method
				}
			}
		}
	}
	return lowered[0]
}

// compile-time interface check
var _ IdentityProvider = (*OAuthClient)(nil)
