package hxpage

import (
	"fmt"

	"github.com/pthm/hxpage/lib/crypt"
)

// EncryptURL encrypts url with a crypt from f, producing the token a
// CryptoMapper carries in its query parameter.
func EncryptURL(f crypt.Factory, url string) (string, error) {
	c, err := f.NewCrypt()
	if err != nil {
		return "", fmt.Errorf("hxpage: resolve crypt: %w", err)
	}
	return c.EncryptURLSafe(url)
}

// DecryptURL reverses EncryptURL. Failures are reported with the hxpage
// sentinels, so IsDecryptionError can classify them.
//
// Unlike CryptoMapper, which treats a bad token as "not mine", DecryptURL
// returns the error; it is meant for tooling and diagnostics.
func DecryptURL(f crypt.Factory, token string) (string, error) {
	c, err := f.NewCrypt()
	if err != nil {
		return "", fmt.Errorf("hxpage: resolve crypt: %w", err)
	}
	plain, err := c.DecryptURLSafe(token)
	if err != nil {
		return "", wrapCryptError(err)
	}
	return plain, nil
}
