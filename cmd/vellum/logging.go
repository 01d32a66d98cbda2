package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"vellum/internal/config"
)

const logLevelEnvKey = "VELLUM_LOG_LEVEL"

// levelCandidate is one source in the log-level precedence chain.
type levelCandidate struct {
	source string
	raw    string
}

// configureLoggerForCLI installs the default logger from the first
// non-empty source in flag > env > config order. An invalid flag value is
// an error; an invalid env or config value falls back to the default level
// and returns a warning for the caller to print.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	candidates := []levelCandidate{
		{source: "flag", raw: flagLevel},
		{source: "env", raw: os.Getenv(logLevelEnvKey)},
		{source: "config", raw: configLevel},
	}

	for _, c := range candidates {
		if strings.TrimSpace(c.raw) == "" {
			continue
		}
		level, err := parseLogLevel(c.raw)
		if err == nil {
			installLogger(level)
			return "", nil
		}
		if c.source == "flag" {
			return "", fmt.Errorf("invalid --log-level %q", c.raw)
		}
		installLogger(fallbackLevel())
		if c.source == "env" {
			return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s",
				logLevelEnvKey, c.raw, config.DefaultLogLevel), nil
		}
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s",
			c.raw, config.DefaultLogLevel), nil
	}

	installLogger(fallbackLevel())
	return "", nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return fallbackLevel(), nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	return fallbackLevel(), fmt.Errorf("invalid log level %q", raw)
}

func fallbackLevel() slog.Level {
	// config.DefaultLogLevel is one of the named levels above.
	switch config.DefaultLogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func installLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
