package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/auth"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/ledgerapi"
	"github.com/talkincode/toughledger/internal/repository"
	"github.com/talkincode/toughledger/internal/service"
	"github.com/talkincode/toughledger/internal/validation"
	"github.com/talkincode/toughledger/internal/webserver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	logger    *zap.Logger
	hasher    *auth.PasswordHasher
	sessions  *auth.SessionManager
	server    *webserver.Server
}

// Ensure Application implements all interfaces
var (
	_ DBProvider     = (*Application)(nil)
	_ ConfigProvider = (*Application)(nil)
	_ LoggerProvider = (*Application)(nil)
	_ ServerProvider = (*Application)(nil)
	_ AppContext     = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Logger() *zap.Logger {
	return a.logger
}

func (a *Application) Server() *webserver.Server {
	return a.server
}

// OverrideDB replaces the application's database handle (used in tests).
// It must be called before Init.
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideLogger replaces the logger built from configuration (used in tests).
func (a *Application) OverrideLogger(logger *zap.Logger) {
	a.logger = logger
}

// Init builds the logger, connects and migrates the database, seeds it when
// configured and installs every route.
func (a *Application) Init() error {
	cfg := a.appConfig

	loc, err := time.LoadLocation(cfg.System.Location)
	if err == nil {
		time.Local = loc
	}

	if a.logger == nil {
		if a.logger, err = buildLogger(cfg.Logger); err != nil {
			return errors.Wrap(err, "build logger")
		}
	}
	if err != nil {
		a.logger.Warn("timezone config error", zap.String("location", cfg.System.Location), zap.Error(err))
	}

	if a.gormDB == nil {
		if a.gormDB, err = getDatabase(cfg.Database, cfg.System.Workdir); err != nil {
			return err
		}
		a.logger.Info("database connection successful", zap.String("type", cfg.Database.Type))
	}

	if err := a.MigrateDB(cfg.Database.Debug); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	a.hasher = auth.NewPasswordHasher(cfg.Auth.Argon)
	a.sessions = auth.NewSessionManager(cfg.Auth)

	a.seed()

	return a.initServer()
}

func (a *Application) initServer() error {
	cfg := a.appConfig
	gate := validation.NewGate()

	server, err := webserver.NewServer(cfg, a.logger, gate)
	if err != nil {
		return errors.Wrap(err, "build web server")
	}

	paginator := service.NewPaginator(cfg.Pagination)
	productRepo := repository.NewGormProductRepository(a.gormDB, a.logger)
	transactionRepo := repository.NewGormTransactionRepository(a.gormDB, a.logger)
	userRepo := repository.NewGormUserRepository(a.gormDB, a.logger)

	ledgerapi.Register(server, ledgerapi.Deps{
		Gate:         gate,
		Sessions:     a.sessions,
		Products:     service.NewProductService(productRepo, paginator, a.logger),
		Transactions: service.NewTransactionService(transactionRepo, productRepo, paginator, a.logger),
		Users:        service.NewUserService(userRepo, a.hasher, a.sessions, paginator, a.logger),
	})
	a.server = server
	return nil
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Disabled {
		return zap.NewNop(), nil
	}

	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapConfig.Level = level
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if !cfg.FileEnable {
		return zapConfig.Build(zap.AddCaller())
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   false,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(lumberJackLogger),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
			} else {
				err = errors.Errorf("migration panic: %v", err1)
			}
			a.logger.Error("migration panicked", zap.Error(err))
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

// DropAll removes every ledger table.
func (a *Application) DropAll() error {
	return a.gormDB.Migrator().DropTable(domain.Tables...)
}

// InitDb drops and recreates the schema, then seeds it again when seeding
// is enabled.
func (a *Application) InitDb() error {
	if err := a.DropAll(); err != nil {
		return errors.Wrap(err, "drop tables")
	}
	if err := a.MigrateDB(false); err != nil {
		return err
	}
	a.seed()
	return nil
}

func (a *Application) seed() {
	if !a.appConfig.Database.Seed {
		return
	}
	a.checkAdmin()
	a.checkProducts()
}

// Start serves HTTP until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	return a.server.Start(ctx)
}

// Release releases application resources
func (a *Application) Release() {
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
