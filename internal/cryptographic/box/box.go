// Package box implements the client-side message cipher: a static-static
// X25519 agreement whose shared secret is stretched with HKDF-SHA256 into an
// AES-256-GCM key. Both directions of a conversation derive the same key, so
// Seal(aPriv, bPub) opens with Open(bPriv, aPub) and a client can decrypt its
// own sent history. The server never imports this package.
package box

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// NewKeyPair generates an X25519 key pair.
func NewKeyPair() (priv, pub [32]byte, err error) {
	_, err = rand.Read(priv[:])
	if err != nil {
		return priv, pub, fmt.Errorf("failed to generate private key: %w", err)
	}
	curve25519.ScalarBaseMult(&pub, &priv)
	return priv, pub, nil
}

// PublicKey derives the public half of an X25519 private key.
func PublicKey(priv [32]byte) (pub [32]byte) {
	curve25519.ScalarBaseMult(&pub, &priv)
	return pub
}

// Seal encrypts plaintext for the holder of peerPub. Output is nonce || ct.
func Seal(priv, peerPub [32]byte, plaintext []byte) ([]byte, error) {
	key, err := sharedKey(priv, peerPub)
	if err != nil {
		return nil, err
	}
	return aeadEncrypt(key, plaintext)
}

// Open decrypts a Seal output produced with the matching key pair.
func Open(priv, peerPub [32]byte, nonceAndCiphertext []byte) ([]byte, error) {
	key, err := sharedKey(priv, peerPub)
	if err != nil {
		return nil, err
	}
	return aeadDecrypt(key, nonceAndCiphertext)
}

func sharedKey(priv, pub [32]byte) ([]byte, error) {
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return nil, fmt.Errorf("x25519: %w", err)
	}

	key := make([]byte, 32)
	h := hkdf.New(sha256.New, secret, nil, []byte("MessageKey"))
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

func aeadEncrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand.Read nonce: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	// return nonce || ciphertext
	return append(nonce, ciphertext...), nil
}

func aeadDecrypt(key, nonceAndCiphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	ns := aead.NonceSize()
	if len(nonceAndCiphertext) < ns {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := nonceAndCiphertext[:ns]
	ct := nonceAndCiphertext[ns:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("aead.Open: %w", err)
	}
	return plain, nil
}
