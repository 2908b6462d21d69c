package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DigitalTwinsClient Digital Twins 管理 API 客户端（RemoteFetcher）
// 不做重试，失败直接返回给调用方
type DigitalTwinsClient struct {
	httpClient *resty.Client
	tokens     *aadTokenSource
	logger     *zap.Logger
}

var _ RemoteFetcher = (*DigitalTwinsClient)(nil)

// NewDigitalTwinsClient 创建 Digital Twins 客户端
// managementAPIURL 例如 https://<name>.<region>.azuresmartspaces.net/management/
func NewDigitalTwinsClient(managementAPIURL string, creds AADCredentials, timeout time.Duration, logger *zap.Logger) *DigitalTwinsClient {
	client := resty.New().
		SetBaseURL(managementAPIURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &DigitalTwinsClient{
		httpClient: client,
		tokens:     newAADTokenSource(creds, timeout),
		logger:     logger,
	}
}

func (c *DigitalTwinsClient) GetAsString(ctx context.Context, path string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("Digital Twins authentication failed", zap.Error(err))
		return "", err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(path)
	if err != nil {
		c.logger.Error("Digital Twins API call failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to call Digital Twins API %s: %w", path, err)
	}

	if !resp.IsSuccess() {
		c.logger.Error("Digital Twins API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", &RemoteFetchError{Path: path, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Debug("Digital Twins API call succeeded",
		zap.String("path", path),
		zap.Duration("elapsed", resp.Time()),
	)
	return resp.String(), nil
}
