package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open opens a GORM connection based on the provided DSN.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	dialect, err := DetectDialect(trimmed)
	if err != nil {
		return nil, err
	}
	cfg := &gorm.Config{
		Logger:  newGormLogger(log),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	switch dialect {
	case DialectPostgres:
		return openPostgres(trimmed, cfg)
	case DialectSQLite:
		return openSQLite(trimmed, cfg)
	default:
		return nil, fmt.Errorf("db: unsupported dialect: %s", dialect)
	}
}

// DetectDialect infers the dialect from a DSN string.
func DetectDialect(dsn string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres, nil
	case strings.Contains(lower, "host=") || strings.Contains(lower, "user=") || strings.Contains(lower, "dbname=") || strings.Contains(lower, "sslmode="):
		return DialectPostgres, nil
	case strings.HasPrefix(lower, "file:"),
		strings.HasPrefix(lower, "sqlite://"),
		!strings.Contains(lower, "://"):
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("db: unsupported dsn: %s", dsn)
	}
}

// openPostgres opens the pool with lib/pq and hands it to GORM.
func openPostgres(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if errPing := sqlDB.PingContext(pingCtx); errPing != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", errPing)
	}

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: open: %w", err)
	}
	return conn, nil
}

// openSQLite opens an embedded database, used for local runs and tests.
func openSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	normalized := ensureSQLiteParams(normalizeSQLiteDSN(dsn))
	conn, err := gorm.Open(sqlite.Open(normalized), cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite sql: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

// normalizeSQLiteDSN converts sqlite URLs into file-based DSNs.
func normalizeSQLiteDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "sqlite://") {
		return "file:" + dsn[len("sqlite://"):]
	}
	return dsn
}

// ensureSQLiteParams adds the pragmas the settlement engine relies on.
func ensureSQLiteParams(dsn string) string {
	lower := strings.ToLower(dsn)
	targetPragmas := map[string]string{
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"journal_mode": "WAL",
	}
	var add []string
	for _, name := range []string{"busy_timeout", "foreign_keys", "journal_mode"} {
		if strings.Contains(lower, name) {
			continue
		}
		add = append(add, "_pragma="+name+"("+targetPragmas[name]+")")
	}
	if len(add) == 0 {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join(add, "&")
}

// Migrate creates or updates the schema for all ledger entities.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.MerchantUser{},
		&models.Account{},
		&models.PaymentRequest{},
		&models.WalletTransaction{},
		&models.InstallmentBill{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

func newGormLogger(log *logrus.Logger) logger.Interface {
	if log == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
