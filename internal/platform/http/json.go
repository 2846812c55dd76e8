package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// StatusError は外部APIが 4xx/5xx を返したことを表します。
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: http %d", e.URL, e.Code)
	}
	return fmt.Sprintf("GET %s: http %d: %s", e.URL, e.Code, e.Body)
}

// GetJSON は rawURL に GET リクエストを送り、レスポンスボディを out にデコードします。
// ステータスコードが400以上の場合は *StatusError を返します。
func GetJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		// エラー本文は先頭だけ残す
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return &StatusError{URL: req.URL.Redacted(), Code: res.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Redacted(), err)
	}
	return nil
}
