package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ParseEnvFile reads KEY=VALUE pairs from a dotenv style file. Blank lines,
// comments and an optional "export " prefix are tolerated.
func ParseEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	env := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || s[0] == '#' {
			continue
		}
		s = strings.TrimPrefix(s, "export ")
		k, v, ok := strings.Cut(s, "=")
		if !ok {
			continue
		}
		env[strings.TrimSpace(k)] = stripQuotes(strings.TrimSpace(v))
	}
	return env, sc.Err()
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// APIKey resolves the tracking API key from the environment, then from the
// configured env file.
func (t Tracking) APIKey() (string, error) {
	if v := os.Getenv(t.APIKeyEnv); v != "" {
		return v, nil
	}
	if t.EnvFile != "" {
		env, err := ParseEnvFile(t.EnvFile)
		if err != nil {
			return "", err
		}
		if v := env[t.APIKeyEnv]; v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s is not set", t.APIKeyEnv)
}
