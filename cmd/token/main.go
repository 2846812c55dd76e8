// Command token issues a bearer token for a user ID with the configured JWT secret.
// Operators use it to call the admin and trading routes.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"market_backend/internal/platform/config"
	jwtmw "market_backend/internal/platform/jwt"
	"market_backend/internal/platform/logging"
)

func main() {
	user := flag.String("user", "", "user ID to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.LogLevel)

	if *user == "" || cfg.JWTSecret == "" {
		slog.Error("both -user and JWT_SECRET are required")
		os.Exit(2)
	}

	token, err := jwtmw.NewGenerator(cfg.JWTSecret, *ttl).GenerateToken(*user)
	if err != nil {
		slog.Error("sign token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
