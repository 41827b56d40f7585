// Package seal implements the authenticated encryption used for the session
// cookie. The sealed value is four colon-separated hex fields:
//
//	hex(salt):hex(iv):hex(tag):hex(ciphertext)
//
// with a 32-byte salt, a 16-byte IV, AES-256-GCM, and the key derived from
// the configured secret via scrypt. The format is a wire contract shared
// with existing cookies and must not change shape.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 32
	ivLength   = 16

	scryptN = 32768
	scryptR = 8
	scryptP = 1
	keyLen  = 32
)

var (
	ErrInvalidFormat = errors.New("invalid encrypted format")
	ErrEmptySecret   = errors.New("encryption secret is empty")
)

// Sealer seals and opens session payloads with a fixed secret.
type Sealer struct {
	secret []byte
}

func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Sealer{secret: []byte(secret)}, nil
}

// Seal encrypts plaintext with a fresh salt and IV per call.
func (s *Sealer) Seal(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", pkgerrors.Wrap(err, "[Seal] rand.Read salt")
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", pkgerrors.Wrap(err, "[Seal] rand.Read iv")
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return "", err
	}

	// gcm.Seal appends the auth tag to the ciphertext; the wire format
	// carries the tag as its own field.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagOffset := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagOffset], sealed[tagOffset:]

	parts := []string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}
	return strings.Join(parts, ":"), nil
}

// Open decrypts a sealed value. It fails closed: any malformed field,
// wrong field count, or authentication failure is an error.
func (s *Sealer) Open(sealed string) (string, error) {
	parts := strings.Split(sealed, ":")
	if len(parts) != 4 {
		return "", ErrInvalidFormat
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Open] decoding salt")
	}
	iv, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Open] decoding iv")
	}
	tag, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Open] decoding tag")
	}
	ciphertext, err := hex.DecodeString(parts[3])
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Open] decoding ciphertext")
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return "", err
	}
	if len(iv) != gcm.NonceSize() {
		return "", ErrInvalidFormat
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Open] gcm.Open")
	}
	return string(plaintext), nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.secret, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[aead] scrypt.Key")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[aead] aes.NewCipher")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[aead] cipher.NewGCM")
	}
	return gcm, nil
}
