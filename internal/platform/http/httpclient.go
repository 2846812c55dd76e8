// Package http は上流APIを呼び出すためのHTTPクライアントとJSON取得ヘルパーを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は上流API呼び出し用のHTTPクライアントを作成します。
// timeout はリクエスト全体の上限です。http.DefaultClient にはタイムアウトがないため使いません。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
