// token は開発用のアクセストークンを発行する
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/sanosuguru/go-facility-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-facility-reservation/internal/config"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	subject := flag.StringP("sub", "s", "", "ユーザーID（必須）")
	role := flag.StringP("role", "r", string(actor.RoleUser), "ロール（admin または user）")
	ttl := flag.DurationP("ttl", "t", 24*time.Hour, "有効期間")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "--sub を指定してください")
		os.Exit(2)
	}
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET が設定されていません")
		os.Exit(1)
	}
	r, err := actor.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, actor.Actor{ID: *subject, Role: r}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
