package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
	"market_backend/internal/feature/marketdata/transport/http/dto"
)

const (
	maxStreamSymbols = 50
	writeWait        = 5 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10

	DefaultStreamInterval = 2 * time.Second
)

// PriceReader reads current prices.
type PriceReader interface {
	GetCurrentPrice(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error)
}

// QuoteStream pushes price updates over a websocket. Each connection polls the
// PriceReader every interval and sends only records that changed since the last push.
type QuoteStream struct {
	prices   PriceReader
	interval time.Duration
	upgrader websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
}

// NewQuoteStream creates the /ws/quotes handler.
func NewQuoteStream(prices PriceReader, interval time.Duration) *QuoteStream {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &QuoteStream{
		prices:   prices,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// public read-only data, any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		closing: make(chan struct{}),
	}
}

// Shutdown ends every open stream with a going-away close frame.
// http.Server.Shutdown does not track hijacked connections, so register this
// with RegisterOnShutdown.
func (s *QuoteStream) Shutdown() {
	s.closeOnce.Do(func() { close(s.closing) })
}

type sentQuote struct {
	price decimal.Decimal
	at    time.Time
}

// Serve upgrades the request and streams quotes.
//
// GET /ws/quotes?class=crypto&symbols=BTC,ETH
func (s *QuoteStream) Serve(c *gin.Context) {
	class, ok := entity.ParseAssetClass(c.Query("class"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrUnknownAssetClass.Error() + ": " + c.Query("class")})
		return
	}
	symbols := parseSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "symbols is required"})
		return
	}
	if len(symbols) > maxStreamSymbols {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "too many symbols"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go readPump(conn, cancel)

	s.writeLoop(ctx, conn, class, symbols)
}

// readPump discards client messages and calls cancel on disconnect or missing pongs.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *QuoteStream) writeLoop(ctx context.Context, conn *websocket.Conn, class entity.AssetClass, symbols []string) {
	last := make(map[string]sentQuote, len(symbols))

	push := func() error {
		for _, sym := range symbols {
			rec, err := s.prices.GetCurrentPrice(ctx, class, sym)
			if err != nil {
				if !errors.Is(err, domain.ErrPriceNotFound) && ctx.Err() == nil {
					slog.Warn("quote stream read failed", "class", class, "symbol", sym, "error", err)
				}
				continue
			}
			prev, seen := last[sym]
			if seen && prev.price.Equal(rec.Price) && prev.at.Equal(rec.UpdatedAt) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(dto.QuoteMessage{
				Type:       "quote",
				AssetClass: string(rec.AssetClass),
				Symbol:     rec.Symbol,
				Price:      rec.Price,
				Source:     rec.Source,
				UpdatedAt:  rec.UpdatedAt.UTC(),
			}); err != nil {
				return err
			}
			last[sym] = sentQuote{price: rec.Price, at: rec.UpdatedAt}
		}
		return nil
	}

	if err := push(); err != nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := push(); err != nil {
				slog.Debug("quote stream closed", "class", class, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// parseSymbols turns "btc, eth,,BTC" into a normalized list without duplicates.
func parseSymbols(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range strings.Split(raw, ",") {
		sym := entity.NormalizeSymbol(p)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
