package app

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"e2e_relay/internal/cryptographic/box"
)

// loadOrCreateKeyPair keeps the private key in a local file only. Nothing
// under dir is ever sent to the server; signup publishes just the public half.
func loadOrCreateKeyPair(dir, name string) (priv, pub [32]byte, err error) {
	path := filepath.Join(dir, name+".key")

	data, err := os.ReadFile(path)
	if err == nil {
		raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return priv, pub, fmt.Errorf("decode key file %s: %w", path, err)
		}
		if len(raw) != 32 {
			return priv, pub, fmt.Errorf("key file %s: expected 32 bytes, got %d", path, len(raw))
		}
		copy(priv[:], raw)
		return priv, box.PublicKey(priv), nil
	}

	if !os.IsNotExist(err) {
		return priv, pub, err
	}

	priv, pub, err = box.NewKeyPair()
	if err != nil {
		return priv, pub, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return priv, pub, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(priv[:])), 0o600); err != nil {
		return priv, pub, err
	}
	return priv, pub, nil
}
