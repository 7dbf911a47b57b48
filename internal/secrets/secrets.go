// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets sources API keys for the text-generation client. Keys come
// from the environment first and from a directory of plain-text files second:
// in the directory each file is one secret, the filename is the key name and
// the trimmed file contents are the value.
//
// Supported key files: deepseek-api-key, openai-api-key, anthropic-api-key,
// semantic-scholar-api-key, openalex-email.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/pkg/types"
)

// EnvAPIKey overrides every provider-specific credential.
const EnvAPIKey = "PAPER_AGENT_API_KEY"

// ErrMissingCredential is returned when no API key can be found for the
// configured provider. It is fatal at startup.
var ErrMissingCredential = errors.New("missing API credential")

// providerKeys lists, per provider, the environment variables and secret
// files consulted after EnvAPIKey, in order.
var providerKeys = map[types.Provider]struct {
	env   []string
	files []string
}{
	types.ProviderOpenAI: {
		env:   []string{"DEEPSEEK_API_KEY", "OPENAI_API_KEY"},
		files: []string{"deepseek-api-key", "openai-api-key"},
	},
	types.ProviderAnthropic: {
		env:   []string{"ANTHROPIC_API_KEY"},
		files: []string{"anthropic-api-key"},
	},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ResolveAPIKey finds the API key for provider. The lookup order is
// EnvAPIKey, the provider's environment variables, then the provider's
// secret files. getenv is os.Getenv outside tests.
func ResolveAPIKey(provider types.Provider, files map[string]string, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		return v, nil
	}

	keys, ok := providerKeys[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	for _, name := range keys.env {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
	}
	for _, name := range keys.files {
		if v := files[name]; v != "" {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w: set %s or %s", ErrMissingCredential, EnvAPIKey, strings.Join(keys.env, ", "))
}
