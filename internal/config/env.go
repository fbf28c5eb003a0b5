package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
)

// loadEnvFile loads <root>/.env when present. Variables already set in the
// process environment are not overridden.
func loadEnvFile(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "load .env file").
			Fatal().WithContext("path", path).Build()
	}
	slog.Debug("Loaded environment file", logfields.Path(path))
	return nil
}
