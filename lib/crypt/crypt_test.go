package crypt

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAESCrypt(t *testing.T) {
	// Any key length works (derives 32-byte key)
	if _, err := NewAESCrypt([]byte("short")); err != nil {
		t.Fatalf("NewAESCrypt with short key failed: %v", err)
	}
	if _, err := NewAESCrypt([]byte("this-is-a-32-byte-key-for-aes!!!")); err != nil {
		t.Fatalf("NewAESCrypt with 32-byte key failed: %v", err)
	}
	if _, err := NewAESCrypt(); !errors.Is(err, ErrNoKeys) {
		t.Errorf("NewAESCrypt() error = %v, want ErrNoKeys", err)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		in   string
	}{
		{"encrypted path", ModeEncrypted, "/page?a=1"},
		{"encrypted empty", ModeEncrypted, ""},
		{"encrypted unicode", ModeEncrypted, "/straße/ü?q=%E2%9C%93"},
		{"signed path", ModeSigned, "/page?a=1"},
		{"signed long", ModeSigned, "/" + strings.Repeat("segment/", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.mode, Keyring{[]byte("test-key")})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			token, err := c.EncryptURLSafe(tt.in)
			if err != nil {
				t.Fatalf("EncryptURLSafe() error = %v", err)
			}
			if strings.ContainsAny(token, "+/=?&") {
				t.Errorf("token %q is not URL safe", token)
			}

			got, err := c.DecryptURLSafe(token)
			if err != nil {
				t.Fatalf("DecryptURLSafe() error = %v", err)
			}
			if got != tt.in {
				t.Errorf("DecryptURLSafe() = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestEncryptedTokensAreOpaque(t *testing.T) {
	c, _ := NewAESCrypt([]byte("test-key"))

	a, _ := c.EncryptURLSafe("/secret/42")
	b, _ := c.EncryptURLSafe("/secret/42")
	if a == b {
		t.Error("two encryptions of the same URL produced the same token")
	}
}

func TestSignatureVerificationFailure(t *testing.T) {
	c, _ := NewSignedCrypt([]byte("test-key"))
	token, err := c.EncryptURLSafe("/page?a=1")
	if err != nil {
		t.Fatalf("EncryptURLSafe() error = %v", err)
	}

	// Tamper with the signature
	tampered := token[:len(token)-2] + "XX"

	_, err = c.DecryptURLSafe(tampered)
	if !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("DecryptURLSafe(tampered) error = %v, want signature error", err)
	}
}

func TestDecryptionFailure(t *testing.T) {
	c, _ := NewAESCrypt([]byte("test-key"))
	token, err := c.EncryptURLSafe("/page?a=1")
	if err != nil {
		t.Fatalf("EncryptURLSafe() error = %v", err)
	}

	tampered := token[:len(token)-2] + "XX"
	if _, err := c.DecryptURLSafe(tampered); err == nil {
		t.Error("expected error for tampered ciphertext, got nil")
	}

	if _, err := c.DecryptURLSafe("AAAA"); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("DecryptURLSafe(short) error = %v, want ErrDecryptFailed", err)
	}
}

func TestInvalidFormat(t *testing.T) {
	signed, _ := NewSignedCrypt([]byte("test-key"))
	if _, err := signed.DecryptURLSafe("invalidbase64withoutseparator"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("signed error = %v, want ErrInvalidFormat", err)
	}

	enc, _ := NewAESCrypt([]byte("test-key"))
	if _, err := enc.DecryptURLSafe("not base64 !!"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("encrypted error = %v, want ErrInvalidFormat", err)
	}
}

func TestDifferentKeysCannotDecrypt(t *testing.T) {
	for _, mode := range []Mode{ModeEncrypted, ModeSigned} {
		t.Run(mode.String(), func(t *testing.T) {
			c1, _ := New(mode, Keyring{[]byte("key-one")})
			c2, _ := New(mode, Keyring{[]byte("key-two")})

			token, err := c1.EncryptURLSafe("/page")
			if err != nil {
				t.Fatalf("EncryptURLSafe() error = %v", err)
			}
			if _, err := c2.DecryptURLSafe(token); err == nil {
				t.Error("expected error when decrypting with a different key")
			}
		})
	}
}

func TestKeyringRotation(t *testing.T) {
	for _, mode := range []Mode{ModeEncrypted, ModeSigned} {
		t.Run(mode.String(), func(t *testing.T) {
			old, _ := New(mode, Keyring{[]byte("old")})
			rotated, _ := New(mode, Keyring{[]byte("new"), []byte("old")})
			retired, _ := New(mode, Keyring{[]byte("new")})

			token, _ := old.EncryptURLSafe("/issued/before/rotation")

			got, err := rotated.DecryptURLSafe(token)
			if err != nil {
				t.Fatalf("rotated DecryptURLSafe() error = %v", err)
			}
			if got != "/issued/before/rotation" {
				t.Errorf("rotated DecryptURLSafe() = %q", got)
			}

			fresh, _ := rotated.EncryptURLSafe("/after")
			if _, err := retired.DecryptURLSafe(fresh); err != nil {
				t.Errorf("new tokens should use the primary key: %v", err)
			}
			if _, err := retired.DecryptURLSafe(token); err == nil {
				t.Error("retired keyring accepted a token signed with a dropped key")
			}
		})
	}
}

func TestParseKeyring(t *testing.T) {
	ring := ParseKeyring([]byte("# rotated 2026-10-01\nprimary\n\n  secondary  \n"))
	if len(ring) != 2 {
		t.Fatalf("len(ring) = %d, want 2", len(ring))
	}
	if string(ring[0]) != "primary" || string(ring[1]) != "secondary" {
		t.Errorf("ring = %q", ring)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeEncrypted, false},
		{"encrypted", ModeEncrypted, false},
		{"Signed", ModeSigned, false},
		{"plain", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStaticFactoryBuildsFreshCrypts(t *testing.T) {
	f := NewStaticFactory(ModeEncrypted, []byte("k"))
	a, err := f.NewCrypt()
	if err != nil {
		t.Fatalf("NewCrypt() error = %v", err)
	}
	b, _ := f.NewCrypt()
	if a == b {
		t.Error("NewCrypt() returned a shared instance")
	}

	token, _ := a.EncryptURLSafe("/x")
	if got, err := b.DecryptURLSafe(token); err != nil || got != "/x" {
		t.Errorf("DecryptURLSafe() = %q, %v", got, err)
	}

	if _, err := NewStaticFactory(ModeSigned).NewCrypt(); !errors.Is(err, ErrNoKeys) {
		t.Errorf("empty factory error = %v, want ErrNoKeys", err)
	}
}
