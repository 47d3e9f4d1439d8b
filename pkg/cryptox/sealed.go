package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	masterKeyOnce sync.Once
	masterKey     []byte
	masterKeyErr  error
	masterKeyPath string
)

// SetMasterKeyPath configures where to load the master encryption key from.
// Must be called before the first Seal/Open. If never set, the key comes from
// the SONICSUITE_MASTER_KEY environment variable, falling back to an
// ephemeral key for development.
func SetMasterKeyPath(path string) {
	masterKeyPath = path
}

func loadMasterKey() ([]byte, error) {
	var material []byte

	switch {
	case masterKeyPath != "":
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		material = data
	case os.Getenv("SONICSUITE_MASTER_KEY") != "":
		material = []byte(os.Getenv("SONICSUITE_MASTER_KEY"))
	default:
		// Ephemeral dev key; sealed values do not survive a restart.
		material = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
		}
	}

	// Derive a fixed-size key from whatever material was provided.
	sum := sha256.Sum256(material)
	return sum[:], nil
}

func getMasterKey() ([]byte, error) {
	masterKeyOnce.Do(func() {
		masterKey, masterKeyErr = loadMasterKey()
	})
	return masterKey, masterKeyErr
}

// Seal encrypts a secret with ChaCha20-Poly1305 under the master key and
// returns it base64url-encoded as [nonce][ciphertext||tag]. Used to keep
// refresh tokens encrypted at rest in the store.
func Seal(plaintext string) (string, error) {
	key, err := getMasterKey()
	if err != nil {
		return "", fmt.Errorf("failed to get master key: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func Open(encoded string) (string, error) {
	key, err := getMasterKey()
	if err != nil {
		return "", fmt.Errorf("failed to get master key: %w", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("sealed value is not valid base64url: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

// ResetMasterKeyForTesting resets the master key singleton. Tests only.
func ResetMasterKeyForTesting() {
	masterKeyOnce = sync.Once{}
	masterKey = nil
	masterKeyErr = nil
}
