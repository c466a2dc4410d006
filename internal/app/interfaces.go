package app

import (
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/webserver"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// LoggerProvider provides the root logger
type LoggerProvider interface {
	Logger() *zap.Logger
}

// ServerProvider provides the HTTP server with every route installed
type ServerProvider interface {
	Server() *webserver.Server
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	LoggerProvider
	ServerProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb() error
	DropAll() error
}
