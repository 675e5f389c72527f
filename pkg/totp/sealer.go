package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// AESKeySize is the AES-256 key length in bytes.
const AESKeySize = 32

// Sealer encrypts secrets with AES-256-GCM before they reach storage.
// Sealed values are base64(nonce || ciphertext || tag).
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != AESKeySize {
		return nil, ErrInvalidEncryptionKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromConfig decodes TOTP_ENCRYPTION_KEY.
func NewSealerFromConfig(cfg Config) (*Sealer, error) {
	key, err := GetEncryptionKey(cfg)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts secret under a fresh random nonce.
func (s *Sealer) Seal(secret string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(secret)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(secret), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. A wrong key or tampered value fails authentication.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidCipherTooShort)
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return string(plain), nil
}

// EncryptSecret is a one-off Seal with key.
func EncryptSecret(plainText string, key []byte) (string, error) {
	s, err := NewSealer(key)
	if err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	return s.Seal(plainText)
}

// DecryptSecret is a one-off Open with key.
func DecryptSecret(sealed string, key []byte) (string, error) {
	s, err := NewSealer(key)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return s.Open(sealed)
}

func GenerateEncryptionKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateEncryptionKey, err)
	}
	return key, nil
}

// GenerateEncodedEncryptionKey returns a fresh key in the form TOTP_ENCRYPTION_KEY expects.
func GenerateEncodedEncryptionKey() (string, error) {
	key, err := GenerateEncryptionKey()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// GetEncryptionKey decodes the base64 key from cfg and checks its length.
func GetEncryptionKey(cfg Config) ([]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrEncryptionKeyNotSet)
	}
	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}
	if len(key) != AESKeySize {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrInvalidEncryptionKeyLength)
	}
	return key, nil
}
