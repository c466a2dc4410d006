package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/toughledger/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getDatabase opens the configured store and checks it answers.
func getDatabase(cfg config.DBConfig, workdir string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.Debug {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "postgres":
		db, err = gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig)
	case "sqlite":
		var dsn string
		if dsn, err = sqliteDSN(cfg.Name, workdir); err == nil {
			db, err = gorm.Open(sqlite.Open(dsn), gormConfig)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "resolve sql db handle")
	}
	if cfg.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrapf(err, "ping %s database", cfg.Type)
	}
	return db, nil
}

func postgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, cfg.SSLMode)
}

// sqliteDSN resolves relative file names under <workdir>/data and always
// enables foreign keys, which the cascade deletes depend on.
func sqliteDSN(name, workdir string) (string, error) {
	if name == "" {
		return "", errors.New("sqlite database name is required")
	}
	dsn := name
	if !strings.HasPrefix(name, "file:") && !filepath.IsAbs(name) {
		dir := filepath.Join(workdir, "data")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "create data dir")
		}
		dsn = filepath.Join(dir, name)
	}
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn, nil
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on", nil
	}
	return dsn + "?_foreign_keys=on", nil
}
