package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

// doJSON executes a prepared request and decodes the JSON body into out.
// HTTP status codes are mapped onto the error taxonomy: 429 and 5xx are
// transient, 404 is a logical miss, remaining 4xx reject the input.
func doJSON(client *http.Client, toolName string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return contractx.NewToolError(toolName, contractx.KindTransient, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.NewToolError(toolName, contractx.KindTransient, fmt.Errorf("read response: %w", err))
	}

	if kind, ok := classifyStatus(resp.StatusCode); ok {
		return contractx.NewToolError(toolName, kind,
			fmt.Errorf("http status=%d body=%s", resp.StatusCode, truncate(raw, 256)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return contractx.NewToolError(toolName, contractx.KindTransient, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func classifyStatus(status int) (contractx.ErrorKind, bool) {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return "", false
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return contractx.KindTransient, true
	case status == http.StatusNotFound:
		return contractx.KindNotFound, true
	default:
		return contractx.KindInvalidInput, true
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
