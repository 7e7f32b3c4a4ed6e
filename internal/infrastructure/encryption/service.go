package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const ivSize = 12

// Service encrypts access tokens with AES-256-GCM.
// Ciphertext is packed as base64(iv) + ":" + base64(ciphertext||tag).
type Service struct {
	aead cipher.AEAD
}

// NewService creates a cipher from a base64 encoded 32-byte key
func NewService(base64Key string) (*Service, error) {
	if base64Key == "" {
		return nil, fmt.Errorf("encryption key is required")
	}

	raw, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Service{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random IV
func (s *Service) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	ct := s.aead.Seal(nil, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a packed "iv:ciphertext" value
func (s *Service) Decrypt(packed string) (string, error) {
	parts := strings.Split(packed, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("bad ciphertext format")
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("failed to decode iv: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("bad iv length %d", len(iv))
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	pt, err := s.aead.Open(nil, iv, ct, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(pt), nil
}
