package adapters

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"market_backend/internal/feature/marketdata/domain"
)

// classifyWriteError はリトライしても成功しない書き込みエラーを domain.ErrStoreRejected でラップします。
// PostgreSQL の SQLSTATE クラス 22 (data exception) と 23 (integrity constraint violation) が対象です。
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return fmt.Errorf("%w: %s (%s)", domain.ErrStoreRejected, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, gorm.ErrInvalidData) || errors.Is(err, gorm.ErrInvalidField) {
		return fmt.Errorf("%w: %v", domain.ErrStoreRejected, err)
	}
	return err
}
