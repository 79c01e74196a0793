package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                 int
	DBDriver             string // "mysql" or "sqlite"
	DBDSN                string
	JWTSecret            string
	WSInsecureSkipVerify bool
	LogLevel             string

	// Per-user send rate limit.
	SendRPS   float64
	SendBurst int
}

func Load() Config {
	port := 8084
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	sendRPS := 5.0
	if v := os.Getenv("SEND_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			sendRPS = f
		}
	}

	sendBurst := 10
	if v := os.Getenv("SEND_BURST"); v != "" {
		if b, err := strconv.Atoi(v); err == nil && b > 0 {
			sendBurst = b
		}
	}

	return Config{
		Port:                 port,
		DBDriver:             driver,
		DBDSN:                os.Getenv("DB_DSN"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		WSInsecureSkipVerify: os.Getenv("WS_INSECURE_SKIP_VERIFY") == "true",
		LogLevel:             os.Getenv("LOG_LEVEL"),
		SendRPS:              sendRPS,
		SendBurst:            sendBurst,
	}
}
