package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// tokenExpiryMargin 提前刷新，避免请求途中过期
const tokenExpiryMargin = 2 * time.Minute

// AADCredentials AAD client-credentials 配置
type AADCredentials struct {
	Instance     string // 例如 https://login.microsoftonline.com/
	TenantID     string
	ClientID     string
	ClientSecret string
	Resource     string
}

// TokenURL {instance}{tenantId}/oauth2/token
func (c AADCredentials) TokenURL() string {
	return strings.TrimRight(c.Instance, "/") + "/" + c.TenantID + "/oauth2/token"
}

type aadTokenResponse struct {
	TokenType   string      `json:"token_type"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// aadTokenSource 缓存 access token 直到临近过期
type aadTokenSource struct {
	client *resty.Client
	creds  AADCredentials
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newAADTokenSource(creds AADCredentials, timeout time.Duration) *aadTokenSource {
	return &aadTokenSource{
		client: resty.New().SetTimeout(timeout),
		creds:  creds,
		now:    time.Now,
	}
}

func (s *aadTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt.Add(-tokenExpiryMargin)) {
		return s.token, nil
	}

	var out aadTokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     s.creds.ClientID,
			"client_secret": s.creds.ClientSecret,
			"resource":      s.creds.Resource,
		}).
		SetResult(&out).
		Post(s.creds.TokenURL())
	if err != nil {
		return "", fmt.Errorf("failed to acquire AAD token: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("AAD token request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("AAD token response has no access_token")
	}

	seconds, err := strconv.Atoi(out.ExpiresIn.String())
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	s.token = out.AccessToken
	s.expiresAt = s.now().Add(time.Duration(seconds) * time.Second)
	return s.token, nil
}
