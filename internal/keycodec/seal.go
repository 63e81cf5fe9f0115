package keycodec

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/go-ports/vecture/internal/models"
)

const (
	kdfAlgorithm = "argon2id"
	cipherName   = "xchacha20-poly1305"
	saltSize     = 16
	keySize      = chacha20poly1305.KeySize
)

// Bounds accepted when opening a sealed key. Anything outside them is treated
// as a format this build does not understand.
const (
	maxTime      = 64
	maxMemoryKiB = 4 << 20
	maxThreads   = 64
	minSaltSize  = 8
	maxSaltSize  = 64
)

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Algorithm string `json:"algorithm,omitempty"`
	Time      uint32 `json:"time"`
	MemoryKiB uint32 `json:"memory_kib"`
	Threads   uint8  `json:"threads"`
	Salt      []byte `json:"salt,omitempty"`
}

// DefaultKDF returns the cost parameters used when none are configured.
func DefaultKDF() KDFParams {
	return KDFParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

func (k KDFParams) withDefaults() KDFParams {
	d := DefaultKDF()
	if k.Time == 0 {
		k.Time = d.Time
	}
	if k.MemoryKiB == 0 {
		k.MemoryKiB = d.MemoryKiB
	}
	if k.Threads == 0 {
		k.Threads = d.Threads
	}
	return k
}

// check validates the parameters. An unknown algorithm is
// ErrUnsupportedFormat; out-of-range costs or salt are reported as bounds.
func (k KDFParams) check(bounds error) error {
	switch {
	case k.Algorithm != kdfAlgorithm:
		return fmt.Errorf("%w: kdf %q", models.ErrUnsupportedFormat, k.Algorithm)
	case k.Time < 1 || k.Time > maxTime:
		return fmt.Errorf("%w: kdf time %d out of range", bounds, k.Time)
	case k.Threads < 1 || k.Threads > maxThreads:
		return fmt.Errorf("%w: kdf threads %d out of range", bounds, k.Threads)
	case k.MemoryKiB < 8*uint32(k.Threads) || k.MemoryKiB > maxMemoryKiB:
		return fmt.Errorf("%w: kdf memory %d KiB out of range", bounds, k.MemoryKiB)
	case len(k.Salt) < minSaltSize || len(k.Salt) > maxSaltSize:
		return fmt.Errorf("%w: kdf salt of %d bytes", bounds, len(k.Salt))
	}
	return nil
}

// header is the part of a sealed envelope bound as additional data.
type header struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	KDF     KDFParams `json:"kdf"`
	Cipher  string    `json:"cipher"`
}

func additionalData(env *envelope) ([]byte, error) {
	return json.Marshal(header{
		Format:  env.Format,
		Version: env.Version,
		KDF:     *env.KDF,
		Cipher:  env.Cipher,
	})
}

func seal(ctx context.Context, env *envelope, plain []byte, passphrase string, kdf KDFParams) error {
	kdf.Algorithm = kdfAlgorithm
	kdf.Salt = make([]byte, saltSize)
	if _, err := rand.Read(kdf.Salt); err != nil {
		return fmt.Errorf("keycodec: salt: %w", err)
	}
	if err := kdf.check(models.ErrInvalidInput); err != nil {
		return err
	}

	key, err := deriveKey(ctx, passphrase, kdf)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("keycodec: cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("keycodec: nonce: %w", err)
	}

	env.Encrypted = true
	env.KDF = &kdf
	env.Cipher = cipherName
	ad, err := additionalData(env)
	if err != nil {
		return fmt.Errorf("keycodec: header: %w", err)
	}
	env.Nonce = nonce
	env.Ciphertext = aead.Seal(nil, nonce, plain, ad)
	return nil
}

func open(ctx context.Context, env *envelope, passphrase string) ([]byte, error) {
	if env.Cipher != cipherName {
		return nil, fmt.Errorf("%w: cipher %q", models.ErrUnsupportedFormat, env.Cipher)
	}
	if env.KDF == nil {
		return nil, fmt.Errorf("%w: sealed key without kdf parameters", models.ErrDecryption)
	}
	if err := env.KDF.check(models.ErrDecryption); err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: key is encrypted and no passphrase was given", models.ErrDecryption)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: nonce of %d bytes", models.ErrDecryption, len(env.Nonce))
	}

	key, err := deriveKey(ctx, passphrase, *env.KDF)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("keycodec: cipher: %w", err)
	}
	ad, err := additionalData(env)
	if err != nil {
		return nil, fmt.Errorf("keycodec: header: %w", err)
	}
	plain, err := aead.Open(nil, env.Nonce, env.Ciphertext, ad)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or tampered key", models.ErrDecryption)
	}
	return plain, nil
}

// deriveKey runs Argon2id off the caller's goroutine so a cancelled context
// returns promptly. The derivation itself is not interruptible and finishes
// in the background.
func deriveKey(ctx context.Context, passphrase string, kdf KDFParams) ([]byte, error) {
	done := make(chan []byte, 1)
	go func() {
		done <- argon2.IDKey([]byte(passphrase), kdf.Salt, kdf.Time, kdf.MemoryKiB, kdf.Threads, keySize)
	}()
	select {
	case key := <-done:
		return key, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("keycodec: key derivation: %w", ctx.Err())
	}
}
