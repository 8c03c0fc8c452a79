package mapper

import (
	"fmt"
	"strings"

	"github.com/pthm/hxpage/lib/crypt"
	"go.uber.org/zap"
)

// DefaultCryptoParameter carries the encrypted URL.
const DefaultCryptoParameter = "x"

// CryptoMapper encrypts the URLs produced by another mapper and decrypts
// incoming ones before delegating. All structural decisions stay with the
// wrapped mapper.
//
// Outbound, a URL such as "/page?a=1" becomes "/?x=<token>". Inbound, a
// request without the parameter, or with a token that fails to decrypt, is
// reported as unmappable rather than as an error, so forged or stale URLs
// fall through to the next mapper (usually ending in a 404).
//
// A CryptoMapper is safe for concurrent use. The crypt is resolved from the
// factory on every call, so key rotation needs no restart.
type CryptoMapper struct {
	inner   Mapper
	factory crypt.Factory
	param   string
	logger  *zap.Logger
}

// CryptoOption configures a CryptoMapper.
type CryptoOption func(*CryptoMapper)

// WithLogger logs swallowed crypt failures at debug level.
func WithLogger(l *zap.Logger) CryptoOption {
	return func(m *CryptoMapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithParameter overrides the query parameter name (default "x").
func WithParameter(name string) CryptoOption {
	return func(m *CryptoMapper) {
		if name != "" {
			m.param = name
		}
	}
}

// NewCryptoMapper wraps inner.
func NewCryptoMapper(inner Mapper, factory crypt.Factory, opts ...CryptoOption) *CryptoMapper {
	m := &CryptoMapper{
		inner:   inner,
		factory: factory,
		param:   DefaultCryptoParameter,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("crypto_mapper")
	return m
}

// CompatibilityScore is always 0: the mapper only unwraps and delegates.
func (m *CryptoMapper) CompatibilityScore(Request) int {
	return 0
}

// MapHandler encrypts the wrapped mapper's URL for h.
func (m *CryptoMapper) MapHandler(h Handler) (URL, bool) {
	u, ok := m.inner.MapHandler(h)
	if !ok {
		return URL{}, false
	}
	return m.encryptURL(u)
}

// MapRequest decrypts the request URL and delegates to the wrapped mapper.
func (m *CryptoMapper) MapRequest(r Request) (Handler, bool) {
	u, ok := m.decryptURL(r.URL)
	if !ok {
		return nil, false
	}
	return m.inner.MapRequest(r.WithURL(u))
}

func (m *CryptoMapper) encryptURL(u URL) (URL, bool) {
	c, err := m.factory.NewCrypt()
	if err != nil {
		m.logger.Error("crypt unavailable", zap.Error(err))
		return URL{}, false
	}
	token, err := c.EncryptURLSafe(u.String())
	if err != nil {
		m.logger.Error("encrypt url", zap.Error(err))
		return URL{}, false
	}

	encrypted := URL{Absolute: true}
	encrypted.AddQueryParameter(m.param, token)
	return encrypted, true
}

func (m *CryptoMapper) decryptURL(u URL) (URL, bool) {
	// Root and empty URLs were never encrypted; let bookmarkable entry
	// points through untouched.
	if u.IsEmpty() {
		return u, true
	}

	token, _ := u.QueryValue(m.param)
	if strings.TrimSpace(token) == "" {
		return URL{}, false
	}

	c, err := m.factory.NewCrypt()
	if err != nil {
		m.logger.Error("crypt unavailable", zap.Error(err))
		return URL{}, false
	}
	plain, err := decrypt(c, token)
	if err != nil {
		m.logger.Debug("rejecting undecryptable url", zap.Error(err))
		return URL{}, false
	}
	if plain == "" {
		return URL{}, false
	}

	decrypted, err := ParseURL(plain)
	if err != nil {
		m.logger.Debug("rejecting decrypted url", zap.String("url", plain), zap.Error(err))
		return URL{}, false
	}
	return decrypted, true
}

// decrypt converts a panicking Crypt into an error. Tokens are attacker
// controlled and a third-party Crypt must not take the request down.
func decrypt(c crypt.Crypt, token string) (plain string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: crypt panicked: %v", crypt.ErrDecryptFailed, r)
		}
	}()
	return c.DecryptURLSafe(token)
}
