// Command token prints a bearer token for the routes guarded by JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "forecast_backend/internal/platform/jwt"
	"forecast_backend/internal/platform/logger"
)

func main() {
	subject := flag.String("sub", "dashboard", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load(".env")
	logger.Init("forecast-token")

	tok, err := jwtmw.IssueToken(jwtmw.SecretFromEnv(), *subject, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
