// Package keycodec serializes key payloads into the self-describing key-file
// envelope and back, optionally sealing them under a passphrase.
//
// Envelope layout (JSON):
//
//	{"format":"vecture-key","version":1,"encrypted":false,"payload":{...}}
//	{"format":"vecture-key","version":1,"encrypted":true,
//	 "kdf":{...},"cipher":"xchacha20-poly1305","nonce":"...","ciphertext":"..."}
//
// Either form may be wrapped for transport as "VECTURE_KEY:" followed by the
// base64 of the zlib-compressed envelope.
package keycodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"

	"github.com/go-ports/vecture/internal/models"
)

const (
	// FormatName tags every key envelope.
	FormatName = "vecture-key"
	// CurrentVersion is the only envelope and payload version understood.
	CurrentVersion = 1
	// CompactPrefix marks the compressed transport form.
	CompactPrefix = "VECTURE_KEY:"
)

type envelope struct {
	Format     string             `json:"format"`
	Version    int                `json:"version"`
	Encrypted  bool               `json:"encrypted"`
	Payload    *models.KeyPayload `json:"payload,omitempty"`
	KDF        *KDFParams         `json:"kdf,omitempty"`
	Cipher     string             `json:"cipher,omitempty"`
	Nonce      []byte             `json:"nonce,omitempty"`
	Ciphertext []byte             `json:"ciphertext,omitempty"`
}

// Options controls how a payload is written.
type Options struct {
	// Passphrase seals the payload when non-empty.
	Passphrase string
	// KDF holds the cost parameters used when sealing; zero fields take defaults.
	KDF KDFParams
	// Compact writes the compressed transport form.
	Compact bool
}

// Encode builds the key payload for a sever operation.
func Encode(records []models.Record, sanitized, style string) *models.KeyPayload {
	if records == nil {
		records = make([]models.Record, 0)
	}
	return &models.KeyPayload{
		Version:   CurrentVersion,
		KeyID:     uuid.NewString(),
		Style:     style,
		Digest:    models.DigestOf(sanitized),
		CreatedAt: time.Now().UTC(),
		Records:   records,
	}
}

// Marshal serializes p into a key file.
func Marshal(ctx context.Context, p *models.KeyPayload, opts Options) ([]byte, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	env := envelope{Format: FormatName, Version: CurrentVersion}
	if opts.Passphrase == "" {
		env.Payload = p
	} else {
		plain, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("keycodec: marshal payload: %w", err)
		}
		if err := seal(ctx, &env, plain, opts.Passphrase, opts.KDF.withDefaults()); err != nil {
			return nil, err
		}
	}

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("keycodec: marshal envelope: %w", err)
	}
	out = append(out, '\n')
	if !opts.Compact {
		return out, nil
	}
	return compact(out)
}

// Unmarshal parses a key file, opening it with passphrase when sealed.
func Unmarshal(ctx context.Context, data []byte, passphrase string) (*models.KeyPayload, error) {
	env, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}

	var p *models.KeyPayload
	if env.Encrypted {
		plain, err := open(ctx, env, passphrase)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(plain, &p); err != nil || p == nil {
			return nil, fmt.Errorf("%w: sealed payload is not a key payload", models.ErrDecryption)
		}
	} else {
		p = env.Payload
	}
	if p == nil {
		return nil, fmt.Errorf("%w: key carries no payload", models.ErrInvalidInput)
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// IsEncrypted reports whether the key file is sealed under a passphrase.
func IsEncrypted(data []byte) (bool, error) {
	env, err := parseEnvelope(data)
	if err != nil {
		return false, err
	}
	return env.Encrypted, nil
}

func parseEnvelope(data []byte) (*envelope, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte(CompactPrefix)) {
		expanded, err := expand(data[len(CompactPrefix):])
		if err != nil {
			return nil, err
		}
		data = expanded
	}

	var probe struct {
		Format     string          `json:"format"`
		Version    json.RawMessage `json:"version"`
		Encrypted  json.RawMessage `json:"encrypted"`
		KDF        json.RawMessage `json:"kdf"`
		Nonce      json.RawMessage `json:"nonce"`
		Ciphertext json.RawMessage `json:"ciphertext"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: key is not valid JSON: %v", models.ErrInvalidInput, err)
	}
	if probe.Format != FormatName {
		return nil, fmt.Errorf("%w: not a %s file", models.ErrUnsupportedFormat, FormatName)
	}
	var version int
	if err := json.Unmarshal(probe.Version, &version); err != nil || version != CurrentVersion {
		return nil, fmt.Errorf("%w: version %s", models.ErrUnsupportedFormat, string(probe.Version))
	}

	// From here on a key that looks sealed fails as undecryptable.
	malformed := models.ErrInvalidInput
	sealed := string(probe.Encrypted) == "true" ||
		present(probe.KDF) || present(probe.Nonce) || present(probe.Ciphertext)
	if sealed {
		malformed = models.ErrDecryption
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", malformed, err)
	}
	if sealed && (!env.Encrypted || env.Payload != nil) {
		return nil, fmt.Errorf("%w: sealed envelope is inconsistent", models.ErrDecryption)
	}
	return &env, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func compact(envJSON []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(envJSON); err != nil {
		return nil, fmt.Errorf("keycodec: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("keycodec: compress: %w", err)
	}
	out := make([]byte, 0, len(CompactPrefix)+base64.StdEncoding.EncodedLen(buf.Len())+1)
	out = append(out, CompactPrefix...)
	out = base64.StdEncoding.AppendEncode(out, buf.Bytes())
	return append(out, '\n'), nil
}

func expand(encoded []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("%w: compact key is not base64: %v", models.ErrInvalidInput, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: compact key is not zlib: %v", models.ErrInvalidInput, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: compact key is truncated: %v", models.ErrInvalidInput, err)
	}
	return out, nil
}

// validate checks the structural invariants of a payload.
func validate(p *models.KeyPayload) error {
	if p == nil {
		return fmt.Errorf("%w: nil key payload", models.ErrInvalidInput)
	}
	if p.Version != CurrentVersion {
		return fmt.Errorf("%w: payload version %d", models.ErrUnsupportedFormat, p.Version)
	}
	if d, err := hex.DecodeString(p.Digest); err != nil || len(d) != 32 {
		return fmt.Errorf("%w: digest is not a hex SHA-256", models.ErrInvalidInput)
	}
	if p.Style == "" {
		return fmt.Errorf("%w: style missing", models.ErrInvalidInput)
	}
	prevEnd := 0
	for i, r := range p.Records {
		if r.Start < prevEnd || r.End-r.Start != len(r.Original) {
			return fmt.Errorf("%w: record %d has span [%d,%d) inconsistent with its neighbours or text",
				models.ErrInvalidInput, i, r.Start, r.End)
		}
		prevEnd = r.End
	}
	return nil
}
