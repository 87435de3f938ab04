package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"easel-ai/internal/domain"
)

// maxResponseBody is the maximum response body size we read from LLM APIs.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// doJSONRequest performs a JSON POST request and returns the response body.
// It handles: create request, set headers, execute, read body (with limit),
// and check HTTP status code. Transport failures map to ErrRequestFailed,
// non-200 responses to *domain.APIError.
func doJSONRequest(ctx context.Context, client *http.Client, provider, url string, body []byte, headers map[string]string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrRequestFailed, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &domain.APIError{
			Provider: provider,
			Status:   httpResp.StatusCode,
			Body:     string(respBody),
		}
	}

	return respBody, nil
}
