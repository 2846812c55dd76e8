package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestBuildDSN はTCP接続とCloud SQLソケット接続のDSNが正しく生成されることを検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "tcp",
			cfg:  Config{User: "testuser", Password: "testpass", Name: "testdb", Host: "localhost", Port: "5432"},
			want: "host=localhost user=testuser password=testpass dbname=testdb port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "cloud sql socket",
			cfg:  Config{User: "testuser", Password: "testpass", Name: "testdb", InstanceName: "project:region:instance"},
			want: "host=/cloudsql/project:region:instance user=testuser password=testpass dbname=testdb sslmode=disable TimeZone=UTC",
		},
		{
			name: "cloud sql takes precedence over host and port",
			cfg: Config{User: "testuser", Password: "testpass", Name: "testdb", Host: "localhost", Port: "5432",
				InstanceName: "project:region:instance", SSLMode: "require"},
			want: "host=/cloudsql/project:region:instance user=testuser password=testpass dbname=testdb sslmode=require TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 5*time.Second, func(dsn string) (*gorm.DB, error) {
		attempts++
		assert.Equal(t, "test-dsn", dsn)
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// リトライ待ちで時間がかかるため並列にしない

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 10*time.Second, func(string) (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attempts)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := ConnectWithRetry("test-dsn", 100*time.Millisecond, func(string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 1, attempts)
}

// TestApplyEnv は設定済みの環境変数だけが設定ファイルの値を上書きすることを検証します。
func TestApplyEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_SSLMODE", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("INSTANCE_CONNECTION_NAME", "")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg := ApplyEnv(Config{Name: "filedb", SSLMode: "require", Host: "filehost"})

	assert.Equal(t, Config{
		Driver:   "postgres",
		User:     "envuser",
		Password: "envpass",
		Name:     "filedb",
		Host:     "envhost",
		Port:     "5433",
		SSLMode:  "require",
		Migrate:  true,
	}, cfg)
}

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

// TestOpenDB_SQLite はSQLiteで接続しマイグレーションが実行されることを検証します。
func TestOpenDB_SQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(Config{Driver: DriverSQLite, Path: path, Migrate: true}, time.Second, &widget{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenDB(Config{Driver: "mysql"}, time.Second)
	assert.ErrorContains(t, err, "unknown db driver")
}
