package data

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectMySQL opens a gorm DB with the Finapp defaults applied to dsn.
// Slow queries and errors are written through l.
func ConnectMySQL(dsn string, l *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("data: mysql dsn is empty")
	}
	if l == nil {
		l = zap.NewNop()
	}

	db, err := gorm.Open(mysql.Open(NormalizeDSN(dsn)), &gorm.Config{Logger: newGormLogger(l)})
	if err != nil {
		return nil, fmt.Errorf("data: open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("data: mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// NormalizeDSN adds parseTime and utf8mb4 charset parameters unless present.
func NormalizeDSN(dsn string) string {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}
	return dsn
}

func newGormLogger(l *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(l.Named("gorm")),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
