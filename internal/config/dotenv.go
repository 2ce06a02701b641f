package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvPath returns the absolute path to the dotenv file (~/.tagsuggest/.env).
func DotEnvPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.tagsuggest/.env and returns key/value pairs.
// A missing file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}
	m, err := godotenv.Read(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return m, nil
}

// GetConfigValue returns the effective value for key, using process environment variables
// first and falling back to ~/.tagsuggest/.env.
func GetConfigValue(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	dotenv, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	return dotenv[key], nil
}

// EnsureDotEnvTemplate creates ~/.tagsuggest/.env if it does not already exist.
//
// The template contains configuration keys with empty values so users can fill
// them in before using a remote embeddings provider.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"# provider: openai or hashing\n" +
		"TAGSUGGEST_EMBEDDINGS_PROVIDER=hashing\n" +
		"TAGSUGGEST_EMBEDDINGS_MODEL=\n" +
		"TAGSUGGEST_EMBEDDINGS_API_KEY=\n" +
		"TAGSUGGEST_EMBEDDINGS_BASE_URL=\n" +
		"TAGSUGGEST_EMBEDDINGS_DIM=\n" +
		"TAGSUGGEST_EMBEDDINGS_RATE=\n"

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create app dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return nil
}
