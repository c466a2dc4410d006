package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/talkincode/toughledger/config"
	"github.com/talkincode/toughledger/internal/app"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("c", "", "config yaml file")
	initdb     = flag.Bool("initdb", false, "drop and recreate every table, then exit")
	showConf   = flag.Bool("conf", false, "print the effective config, secrets masked, and exit")
)

func main() {
	flag.Parse()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	if *showConf {
		out, err := cfg.Dump()
		if err != nil {
			fmt.Fprintln(os.Stderr, "dump config:", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	application := app.NewApplication(cfg)
	defer application.Release()

	if err := application.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		os.Exit(1)
	}

	if *initdb {
		if err := application.InitDb(); err != nil {
			application.Logger().Fatal("init database", zap.Error(err))
		}
		application.Logger().Info("database initialized")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		application.Logger().Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
