package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/config"
	"github.com/sanosuguru/go-facility-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "使い方: migrate [flags] up|down|steps|version\n\n")
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	path := flag.StringP("path", "p", cfg.Database.MigrationsPath, "マイグレーションファイルのディレクトリ")
	steps := flag.IntP("steps", "n", 1, "steps で進める件数（負なら戻す）")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	log := logger.Init(cfg.App.Env, "facility-reservation-migrate")
	defer logger.Sync()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("DB接続エラー", zap.Error(err))
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db.DB, *path)
	if err != nil {
		log.Fatal("マイグレーター作成エラー", zap.Error(err))
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(*steps)
	case "version":
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("マイグレーション失敗", zap.String("command", flag.Arg(0)), zap.Error(err))
	}

	v, dirty, err := m.Version()
	if err != nil {
		log.Fatal("バージョン取得エラー", zap.Error(err))
	}
	log.Info("マイグレーション完了", zap.String("command", flag.Arg(0)), zap.Uint("version", v), zap.Bool("dirty", dirty))
}
