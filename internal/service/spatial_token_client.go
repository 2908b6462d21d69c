package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppTokenProvider 客户端使用的 Spatial Anchors access token
type AppTokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

type stsTokenResponse struct {
	AccessToken string `json:"AccessToken"`
}

// SpatialTokenClient 用 AAD token 向 Mixed Reality STS 换取账号 access token
type SpatialTokenClient struct {
	httpClient *resty.Client
	tokens     *aadTokenSource
	accountID  string
	logger     *zap.Logger
}

var _ AppTokenProvider = (*SpatialTokenClient)(nil)

func NewSpatialTokenClient(stsURL, accountID string, creds AADCredentials, timeout time.Duration, logger *zap.Logger) *SpatialTokenClient {
	return &SpatialTokenClient{
		httpClient: resty.New().SetBaseURL(stsURL).SetTimeout(timeout),
		tokens:     newAADTokenSource(creds, timeout),
		accountID:  accountID,
		logger:     logger,
	}
}

func (c *SpatialTokenClient) GetToken(ctx context.Context) (string, error) {
	if c.accountID == "" {
		return "", fmt.Errorf("spatial anchors account id is not configured: %w", ErrInvalidArgument)
	}
	aadToken, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("Spatial anchors AAD authentication failed", zap.Error(err))
		return "", err
	}

	correlationID := uuid.NewString()
	path := "/Accounts/" + url.PathEscape(c.accountID) + "/token"

	var out stsTokenResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(aadToken).
		SetHeader("X-MRC-CV", correlationID).
		SetResult(&out).
		Get(path)
	if err != nil {
		c.logger.Error("STS token call failed", zap.String("correlation_id", correlationID), zap.Error(err))
		return "", fmt.Errorf("failed to call STS: %w", err)
	}
	if !resp.IsSuccess() {
		c.logger.Error("STS returned error",
			zap.String("correlation_id", correlationID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", &RemoteFetchError{Path: path, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("STS response has no AccessToken")
	}
	return out.AccessToken, nil
}
