package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// mockPriceRepository はPriceRepositoryのモック実装です。
type mockPriceRepository struct {
	UpsertFunc func(ctx context.Context, rec entity.PriceRecord) error
	GetFunc    func(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error)
}

func (m *mockPriceRepository) Upsert(ctx context.Context, rec entity.PriceRecord) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rec)
	}
	return nil
}

func (m *mockPriceRepository) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, class, symbol)
	}
	return nil, domain.ErrPriceNotFound
}

// fixedPrices は銘柄ごとに固定価格を返すPriceRepositoryです。
func fixedPrices(class entity.AssetClass, prices map[string]string) *mockPriceRepository {
	return &mockPriceRepository{
		GetFunc: func(_ context.Context, c entity.AssetClass, symbol string) (*entity.PriceRecord, error) {
			p, ok := prices[symbol]
			if !ok || c != class {
				return nil, domain.ErrPriceNotFound
			}
			return &entity.PriceRecord{AssetClass: c, Symbol: symbol, Price: dec(p), Source: "test"}, nil
		},
	}
}

// mockHistoryRepository はHistoryRepositoryのモック実装です。
type mockHistoryRepository struct {
	GetFunc             func(ctx context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error)
	UpsertHistoriesFunc func(ctx context.Context, class entity.AssetClass, symbol string, h entity.Histories, updatedAt time.Time) error
}

func (m *mockHistoryRepository) Get(ctx context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, class, symbol)
	}
	return nil, domain.ErrHistoryNotFound
}

func (m *mockHistoryRepository) UpsertHistories(ctx context.Context, class entity.AssetClass, symbol string, h entity.Histories, updatedAt time.Time) error {
	if m.UpsertHistoriesFunc != nil {
		return m.UpsertHistoriesFunc(ctx, class, symbol, h, updatedAt)
	}
	return nil
}

// memoryHistoryStore は並行アクセス可能なインメモリHistoryRepositoryです。
type memoryHistoryStore struct {
	mu     sync.Mutex
	docs   map[string]entity.HistoryDocument
	writes int
}

func newMemoryHistoryStore() *memoryHistoryStore {
	return &memoryHistoryStore{docs: map[string]entity.HistoryDocument{}}
}

func (s *memoryHistoryStore) key(class entity.AssetClass, symbol string) string {
	return string(class) + ":" + symbol
}

func (s *memoryHistoryStore) Get(_ context.Context, class entity.AssetClass, symbol string) (*entity.HistoryDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[s.key(class, symbol)]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	doc.Histories = doc.Histories.Clone()
	return &doc, nil
}

func (s *memoryHistoryStore) UpsertHistories(_ context.Context, class entity.AssetClass, symbol string, h entity.Histories, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.docs[s.key(class, symbol)] = entity.HistoryDocument{AssetClass: class, Symbol: symbol, Histories: h.Clone(), UpdatedAt: updatedAt}
	return nil
}

func (s *memoryHistoryStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// mockSymbolRepository はSymbolRepositoryのモック実装です。
type mockSymbolRepository struct {
	ListActiveCodesFunc func(ctx context.Context, market string) ([]string, error)
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context, market string) ([]string, error) {
	if m.ListActiveCodesFunc != nil {
		return m.ListActiveCodesFunc(ctx, market)
	}
	return nil, nil
}

func staticSymbols(codes ...string) *mockSymbolRepository {
	return &mockSymbolRepository{
		ListActiveCodesFunc: func(context.Context, string) ([]string, error) { return codes, nil },
	}
}

// mockPriceFetcher はPriceFetcherのモック実装です。
type mockPriceFetcher struct {
	FetchCurrentFunc func(ctx context.Context, symbol string) (entity.Quote, error)
}

func (m *mockPriceFetcher) FetchCurrent(ctx context.Context, symbol string) (entity.Quote, error) {
	if m.FetchCurrentFunc != nil {
		return m.FetchCurrentFunc(ctx, symbol)
	}
	return entity.Quote{}, domain.ErrFetchFailure
}

// mockBackfiller はHistoryBackfillerのモック実装です。
type mockBackfiller struct {
	mu             sync.Mutex
	calls          []string
	FetchRangeFunc func(ctx context.Context, symbol, token string, window FetchWindow, limit int) ([]entity.Candle, error)
}

func (m *mockBackfiller) FetchRange(ctx context.Context, symbol, token string, window FetchWindow, limit int) ([]entity.Candle, error) {
	m.mu.Lock()
	m.calls = append(m.calls, token)
	m.mu.Unlock()
	if m.FetchRangeFunc != nil {
		return m.FetchRangeFunc(ctx, symbol, token, window, limit)
	}
	return nil, nil
}

// mockInitializer はSymbolInitializerのモック実装です。
type mockInitializer struct {
	EnsureOneFunc       func(ctx context.Context, symbol string) (InitOutcome, error)
	EnsureHistoriesFunc func(ctx context.Context, symbols []string) EnsureReport
	RebuildFunc         func(ctx context.Context, symbol string) (InitOutcome, error)
}

func (m *mockInitializer) EnsureOne(ctx context.Context, symbol string) (InitOutcome, error) {
	if m.EnsureOneFunc != nil {
		return m.EnsureOneFunc(ctx, symbol)
	}
	return OutcomeExisting, nil
}

func (m *mockInitializer) EnsureHistories(ctx context.Context, symbols []string) EnsureReport {
	if m.EnsureHistoriesFunc != nil {
		return m.EnsureHistoriesFunc(ctx, symbols)
	}
	return EnsureReport{}
}

func (m *mockInitializer) Rebuild(ctx context.Context, symbol string) (InitOutcome, error) {
	if m.RebuildFunc != nil {
		return m.RebuildFunc(ctx, symbol)
	}
	return OutcomeBackfilled, nil
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func decFromInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
