package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpJSONClient 各外部服务客户端共用的 JSON 调用封装
// 所有外部调用都带有限定超时，超时视为调用失败，由调用方 fail closed
type httpJSONClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPJSONClient(baseURL string, timeout time.Duration) httpJSONClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return httpJSONClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// doJSON 发送请求并把 2xx 响应体解析到 result（result 可为 nil）
func (c httpJSONClient) doJSON(ctx context.Context, method, path string, body any, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body failed: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response failed: %w", err)
		}
	}
	return resp.StatusCode, nil
}
