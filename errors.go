package hxpage

import (
	"errors"

	"github.com/pthm/hxpage/lib/crypt"
)

// Sentinel errors for mapping and partial page updates.
var (
	ErrNotFound         = errors.New("hxpage: no handler for request")
	ErrNotMappable      = errors.New("hxpage: handler cannot be mapped to a url")
	ErrDecryptFailed    = errors.New("hxpage: url decryption failed")
	ErrSignatureInvalid = errors.New("hxpage: url signature verification failed")
	ErrInvalidFormat    = errors.New("hxpage: invalid url token format")
	ErrUpdateConsumed   = errors.New("hxpage: partial page update already written")
	ErrUnknownCharset   = errors.New("hxpage: unknown charset")
	ErrAlreadyBound     = errors.New("hxpage: behavior is already bound to another component")
	ErrEmptyNamespace   = errors.New("hxpage: xml namespace must not be empty")
)

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// wrapCryptError maps lib/crypt errors onto hxpage sentinels.
func wrapCryptError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, crypt.ErrInvalidFormat):
		return ErrInvalidFormat
	case errors.Is(err, crypt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, crypt.ErrDecryptFailed):
		return ErrDecryptFailed
	}
	return err
}
