// Package crypt provides the symmetric, URL-safe string crypts used to
// protect mapped URLs.
//
// Two modes are supported:
//   - Encrypted (default): AES-256-GCM, fully opaque to clients
//   - Signed: base64 + HMAC-SHA256, visible but tamper-proof
//
// Plaintext is wrapped in a small msgpack envelope before it is sealed, so
// the token format can grow fields without breaking old tokens.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors. Every failure returned by DecryptURLSafe wraps one of these.
var (
	ErrInvalidFormat    = errors.New("crypt: invalid token format")
	ErrSignatureInvalid = errors.New("crypt: signature verification failed")
	ErrDecryptFailed    = errors.New("crypt: decryption failed")
	ErrNoKeys           = errors.New("crypt: no keys configured")
)

// Crypt encrypts and decrypts strings into a URL-safe alphabet.
//
// Implementations must not retain per-call state: the same Crypt may be
// used for several operations within one request.
type Crypt interface {
	EncryptURLSafe(plain string) (string, error)
	DecryptURLSafe(token string) (string, error)
}

// Factory produces a Crypt on demand. Callers resolve a new Crypt for every
// operation so that key changes take effect without a restart.
type Factory interface {
	NewCrypt() (Crypt, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (Crypt, error)

// NewCrypt calls f.
func (f FactoryFunc) NewCrypt() (Crypt, error) {
	return f()
}

// Mode selects how tokens are protected.
type Mode int

const (
	// ModeEncrypted seals tokens with AES-256-GCM.
	ModeEncrypted Mode = iota
	// ModeSigned leaves tokens readable and appends an HMAC tag.
	ModeSigned
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeEncrypted:
		return "encrypted"
	case ModeSigned:
		return "signed"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a config value. The empty string selects ModeEncrypted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "encrypted":
		return ModeEncrypted, nil
	case "signed":
		return ModeSigned, nil
	}
	return 0, fmt.Errorf("crypt: unknown mode %q", s)
}

// Keyring is an ordered set of keys. The first key protects new tokens;
// every key is accepted when opening a token, which allows rotation without
// invalidating URLs already handed out.
type Keyring [][]byte

// ParseKeyring reads one key per line. Blank lines and lines starting with
// '#' are ignored.
func ParseKeyring(data []byte) Keyring {
	var ring Keyring
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		ring = append(ring, append([]byte(nil), line...))
	}
	return ring
}

// New builds a Crypt over ring in the given mode.
func New(mode Mode, ring Keyring) (Crypt, error) {
	if len(ring) == 0 {
		return nil, ErrNoKeys
	}
	switch mode {
	case ModeSigned:
		return NewSignedCrypt(ring...)
	case ModeEncrypted:
		return NewAESCrypt(ring...)
	}
	return nil, fmt.Errorf("crypt: unknown mode %v", mode)
}

// NewStaticFactory returns a Factory over a fixed keyring. Each call to
// NewCrypt builds a fresh Crypt.
func NewStaticFactory(mode Mode, keys ...[]byte) Factory {
	ring := Keyring(keys)
	return FactoryFunc(func() (Crypt, error) {
		return New(mode, ring)
	})
}

// deriveKey stretches keys that are not exactly 32 bytes.
func deriveKey(key []byte) []byte {
	if len(key) != 32 {
		h := sha256.Sum256(key)
		return h[:]
	}
	return key
}

type envelope struct {
	URL string `msgpack:"u"`
}

func pack(plain string) ([]byte, error) {
	return msgpack.Marshal(envelope{URL: plain})
}

func unpack(data []byte) (string, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return env.URL, nil
}

// AESCrypt seals tokens with AES-256-GCM: base64(nonce || ciphertext).
type AESCrypt struct {
	aeads []cipher.AEAD
}

// NewAESCrypt creates an encrypting crypt. The first key seals; all keys open.
func NewAESCrypt(keys ...[]byte) (*AESCrypt, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	c := &AESCrypt{aeads: make([]cipher.AEAD, 0, len(keys))}
	for _, key := range keys {
		block, err := aes.NewCipher(deriveKey(key))
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		c.aeads = append(c.aeads, gcm)
	}
	return c, nil
}

// EncryptURLSafe encrypts plain with the primary key.
func (c *AESCrypt) EncryptURLSafe(plain string) (string, error) {
	data, err := pack(plain)
	if err != nil {
		return "", err
	}

	gcm := c.aeads[0]
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptURLSafe opens a token produced by EncryptURLSafe with any key.
func (c *AESCrypt) DecryptURLSafe(token string) (string, error) {
	sealed, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	for _, gcm := range c.aeads {
		if len(sealed) < gcm.NonceSize()+gcm.Overhead() {
			return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
		}
		nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
		data, err := gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			continue
		}
		return unpack(data)
	}
	return "", ErrDecryptFailed
}

// SignedCrypt produces readable tokens: base64(payload).base64(hmac[:16]).
type SignedCrypt struct {
	keys [][]byte
}

// NewSignedCrypt creates a signing crypt. The first key signs; all keys verify.
func NewSignedCrypt(keys ...[]byte) (*SignedCrypt, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	c := &SignedCrypt{keys: make([][]byte, 0, len(keys))}
	for _, key := range keys {
		c.keys = append(c.keys, deriveKey(key))
	}
	return c, nil
}

// EncryptURLSafe signs plain with the primary key.
func (c *SignedCrypt) EncryptURLSafe(plain string) (string, error) {
	data, err := pack(plain)
	if err != nil {
		return "", err
	}
	b64 := base64.RawURLEncoding.EncodeToString(data)
	sig := base64.RawURLEncoding.EncodeToString(c.mac(c.keys[0], data))
	return b64 + "." + sig, nil
}

// DecryptURLSafe verifies a token against every key and returns its payload.
func (c *SignedCrypt) DecryptURLSafe(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: missing signature", ErrInvalidFormat)
	}

	data, err := base64.RawURLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	for _, key := range c.keys {
		if hmac.Equal(sig, c.mac(key, data)) {
			return unpack(data)
		}
	}
	return "", ErrSignatureInvalid
}

func (c *SignedCrypt) mac(key, data []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(data)
	return m.Sum(nil)[:16] // 128 bits
}
