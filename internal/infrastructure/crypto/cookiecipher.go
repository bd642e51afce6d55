// Package crypto implements the cookie payload cipher: AES-256-CBC with
// PKCS7 padding, authenticated encrypt-then-MAC with HMAC-SHA256, and a
// PBKDF2-derived key. Payloads are versioned and reject after 24 hours.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

const (
	// PayloadVersion is stamped into every encrypted payload; decrypt
	// rejects anything else.
	PayloadVersion = "2.0"

	keySize    = 32
	ivSize     = 16
	saltSize   = 16
	iterations = 10000

	// MaxPayloadAge is how long a payload stays decryptable.
	MaxPayloadAge = 24 * time.Hour
)

// SecurityError marks integrity and confidentiality failures. Callers
// treat these as non-recoverable.
type SecurityError struct {
	Reason string
	Err    error
}

func (e *SecurityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("security error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("security error: %s", e.Reason)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// IsSecurityError reports whether err is (or wraps) a SecurityError.
func IsSecurityError(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

// EncryptedPayload is the wire and storage shape of an encrypted cookie
// batch. Ciphertext is base64, IV and Salt are hex, IntegrityTag is the
// hex HMAC-SHA256 of the ciphertext.
type EncryptedPayload struct {
	Ciphertext   string `json:"data"`
	IV           string `json:"iv"`
	IntegrityTag string `json:"hash"`
	Salt         string `json:"salt"`
	Timestamp    int64  `json:"timestamp"`
	Version      string `json:"version"`
}

// innerPayload is what actually gets encrypted: the caller data plus the
// version and timestamp that decrypt validates.
type innerPayload struct {
	Data      json.RawMessage `json:"data"`
	Version   string          `json:"version"`
	Timestamp int64           `json:"timestamp"`
}

// CookieCipher encrypts and decrypts cookie batches. The key is derived
// once per cipher from the configured secret and a random salt; the salt
// rides in every payload so any instance sharing the secret can decrypt.
type CookieCipher struct {
	key    []byte
	salt   []byte
	maxAge time.Duration
	secret string
}

// NewCookieCipher derives a fresh key from secret with a random salt.
func NewCookieCipher(secret string) (*CookieCipher, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, &SecurityError{Reason: "salt generation failed", Err: err}
	}
	return newCipherWithSalt(secret, salt, MaxPayloadAge), nil
}

// NewCookieCipherWithMaxAge is NewCookieCipher with a custom staleness bound.
func NewCookieCipherWithMaxAge(secret string, maxAge time.Duration) (*CookieCipher, error) {
	c, err := NewCookieCipher(secret)
	if err != nil {
		return nil, err
	}
	c.maxAge = maxAge
	return c, nil
}

func newCipherWithSalt(secret string, salt []byte, maxAge time.Duration) *CookieCipher {
	return &CookieCipher{
		key:    pbkdf2.Key([]byte(secret), salt, iterations, keySize, sha256.New),
		salt:   salt,
		maxAge: maxAge,
		secret: secret,
	}
}

// Encrypt serializes v, wraps it with version and timestamp, encrypts and
// signs the result.
func (c *CookieCipher) Encrypt(v interface{}) (*EncryptedPayload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &SecurityError{Reason: "encryption failed", Err: err}
	}

	now := biztime.NowUTC()
	inner, err := json.Marshal(innerPayload{
		Data:      raw,
		Version:   PayloadVersion,
		Timestamp: biztime.UnixMilli(now),
	})
	if err != nil {
		return nil, &SecurityError{Reason: "encryption failed", Err: err}
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, &SecurityError{Reason: "iv generation failed", Err: err}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, &SecurityError{Reason: "encryption failed", Err: err}
	}

	padded := pkcs7Pad(inner, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	encoded := base64.StdEncoding.EncodeToString(ciphertext)

	return &EncryptedPayload{
		Ciphertext:   encoded,
		IV:           hex.EncodeToString(iv),
		IntegrityTag: c.mac(encoded),
		Salt:         hex.EncodeToString(c.salt),
		Timestamp:    biztime.UnixMilli(now),
		Version:      PayloadVersion,
	}, nil
}

// Decrypt verifies the integrity tag, decrypts, and unmarshals the inner
// data into out. Tampered, re-versioned or stale payloads fail with a
// SecurityError.
func (c *CookieCipher) Decrypt(p *EncryptedPayload, out interface{}) error {
	key := c.key
	if p.Salt != hex.EncodeToString(c.salt) {
		// Payload from another cipher instance; re-derive with its salt.
		salt, err := hex.DecodeString(p.Salt)
		if err != nil {
			return &SecurityError{Reason: "malformed salt", Err: err}
		}
		key = pbkdf2.Key([]byte(c.secret), salt, iterations, keySize, sha256.New)
	}

	expected := macWithKey(key, p.Ciphertext)
	if !hmac.Equal([]byte(expected), []byte(p.IntegrityTag)) {
		return &SecurityError{Reason: "data integrity check failed"}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return &SecurityError{Reason: "malformed ciphertext", Err: err}
	}
	iv, err := hex.DecodeString(p.IV)
	if err != nil || len(iv) != ivSize {
		return &SecurityError{Reason: "malformed iv", Err: err}
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return &SecurityError{Reason: "malformed ciphertext"}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return &SecurityError{Reason: "decryption failed", Err: err}
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return &SecurityError{Reason: "decryption failed", Err: err}
	}

	var inner innerPayload
	if err := json.Unmarshal(unpadded, &inner); err != nil {
		return &SecurityError{Reason: "decryption failed", Err: err}
	}

	if inner.Version != PayloadVersion {
		return &SecurityError{Reason: "unsupported data version"}
	}
	if biztime.NowUTC().Sub(biztime.FromUnixMilli(inner.Timestamp)) > c.maxAge {
		return &SecurityError{Reason: "data has expired"}
	}

	if err := json.Unmarshal(inner.Data, out); err != nil {
		return &SecurityError{Reason: "decryption failed", Err: err}
	}
	return nil
}

func (c *CookieCipher) mac(ciphertext string) string {
	return macWithKey(c.key, ciphertext)
}

func macWithKey(key []byte, ciphertext string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(ciphertext))
	return hex.EncodeToString(h.Sum(nil))
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
