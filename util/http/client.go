package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

type HTTPClient struct {
	client *http.Client
}

// Option 定制底层 http.Client
type Option func(*http.Client)

func NewHTTPClient(opts ...Option) IClient {
	client := &http.Client{Timeout: defaultTimeout}
	for _, opt := range opts {
		opt(client)
	}
	return &HTTPClient{client: client}
}

func (c *HTTPClient) DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error {
	if requestParam == nil {
		return errors.New("request param is nil")
	}

	if requestParam.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestParam.Timeout)
		defer cancel()
	}

	body, contentType, err := encodeBody(requestParam.Body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, requestParam.Method, requestParam.RequestURI, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range requestParam.Header {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var r io.Reader = resp.Body
	if requestParam.MaxResponseBytes > 0 {
		r = io.LimitReader(resp.Body, requestParam.MaxResponseBytes+1)
	}
	respBody, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if requestParam.MaxResponseBytes > 0 && int64(len(respBody)) > requestParam.MaxResponseBytes {
		return fmt.Errorf("response body exceeds %d bytes", requestParam.MaxResponseBytes)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	switch out := requestParam.Response.(type) {
	case nil:
		return nil
	case *[]byte:
		*out = respBody
		return nil
	default:
		if len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}
}

// encodeBody 返回请求体以及默认的 Content-Type
func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return b, "text/plain", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
