// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials kept out of the config file. A secrets
// directory holds one file per credential; the file name is the key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Dir is the secrets directory relative to the working directory.
const Dir = ".secrets"

// RemoteToken is the key holding the bearer token for the remote change log.
const RemoteToken = "remote-token"

// Secrets maps keys to their values.
type Secrets map[string]string

// Load reads the secrets directory at dir. A missing directory yields no
// secrets.
func Load(dir string) (Secrets, error) {
	s, err := LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("loading secrets from %s: %w", dir, err)
	}
	return s, nil
}

// LoadFS reads every regular, non-hidden file at the root of fsys. Values
// are trimmed and empty ones dropped. A file that cannot be read is logged
// and left out.
func LoadFS(fsys fs.FS) (Secrets, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, nil
	}
	if err != nil {
		return nil, err
	}

	s := Secrets{}
	for _, e := range entries {
		key := e.Name()
		if e.IsDir() || strings.HasPrefix(key, ".") {
			continue
		}
		data, err := fs.ReadFile(fsys, key)
		if err != nil {
			slog.Warn("secret not readable", "key", key, "err", err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[key] = v
		}
	}
	return s, nil
}

// Or returns explicit when it is set, else the secret under key.
func (s Secrets) Or(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s[key]
}

// Keys lists the loaded keys in order. Values stay out of logs.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
