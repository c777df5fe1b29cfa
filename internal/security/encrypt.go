package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fernet/fernet-go"
)

// sealedPrefix marks content sealed by ContentCipher. Anything without it is
// treated as a legacy Fernet token.
const sealedPrefix = "v1."

var ErrUndecryptable = errors.New("message content cannot be decrypted")

// ContentCipher seals message bodies at rest with AES-256-GCM. The owning
// conversation id is bound in as associated data, so a body copied into
// another conversation no longer opens.
type ContentCipher struct {
	aead       cipher.AEAD
	fernetKeys []*fernet.Key
}

// NewContentCipher derives the AES key from secret. legacyKeys are Fernet
// keys used by earlier deployments; their tokens stay readable but are never
// written again.
func NewContentCipher(secret string, legacyKeys []string) (*ContentCipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("encryption key must not be empty")
	}
	key := sha256.Sum256([]byte("message-content:" + secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	c := &ContentCipher{aead: aead}
	// A Fernet-shaped primary secret means rows may predate the switch.
	for _, raw := range append([]string{secret}, legacyKeys...) {
		if k, err := fernet.DecodeKey(strings.TrimSpace(raw)); err == nil {
			c.fernetKeys = append(c.fernetKeys, k)
		}
	}
	return c, nil
}

func conversationAD(conversationID int64) []byte {
	return []byte("conversation:" + strconv.FormatInt(conversationID, 10))
}

// Seal encrypts plain for the given conversation.
func (c *ContentCipher) Seal(conversationID int64, plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	out := c.aead.Seal(nonce, nonce, []byte(plain), conversationAD(conversationID))
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal, falling back to the legacy Fernet keys for unprefixed
// content.
func (c *ContentCipher) Open(conversationID int64, sealed string) (string, error) {
	body, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return c.openLegacy(sealed)
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil || len(raw) < c.aead.NonceSize() {
		return "", ErrUndecryptable
	}
	n := c.aead.NonceSize()
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], conversationAD(conversationID))
	if err != nil {
		return "", ErrUndecryptable
	}
	return string(plain), nil
}

func (c *ContentCipher) openLegacy(token string) (string, error) {
	if len(c.fernetKeys) == 0 {
		return "", ErrUndecryptable
	}
	// ttl 0: legacy tokens never expire.
	plain := fernet.VerifyAndDecrypt([]byte(token), 0, c.fernetKeys)
	if plain == nil {
		return "", ErrUndecryptable
	}
	return string(plain), nil
}
