package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// currentVersion is the encrypted-keys JSON schema version.
	currentVersion = 1
)

// encryptedKeysJSON is the on-disk format for an encrypted API key list.
type encryptedKeysJSON struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// EncryptKeys encrypts a list of odds API keys with a password using
// PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM authenticated encryption.
// It returns the JSON blob suitable for writing to disk.
func EncryptKeys(keys []string, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("config: password must not be empty")
	}
	if len(keys) == 0 {
		return nil, errors.New("config: no keys to encrypt")
	}

	plaintext, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("config: encoding keys: %w", err)
	}

	// Generate random salt and derive AES key.
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("config: generating salt: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	// AES-256-GCM encrypt.
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("config: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("config: creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("config: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := encryptedKeysJSON{
		Version:    currentVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}

	return json.MarshalIndent(out, "", "  ")
}

// DecryptKeys decrypts a JSON blob produced by EncryptKeys, returning the
// plaintext API key list.
func DecryptKeys(encryptedJSON []byte, password string) ([]string, error) {
	if password == "" {
		return nil, errors.New("config: password must not be empty")
	}

	var stored encryptedKeysJSON
	if err := json.Unmarshal(encryptedJSON, &stored); err != nil {
		return nil, fmt.Errorf("config: parsing encrypted keys JSON: %w", err)
	}
	if stored.Version != currentVersion {
		return nil, fmt.Errorf("config: unsupported version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, fmt.Errorf("config: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return nil, fmt.Errorf("config: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("config: decoding ciphertext: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("config: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("config: creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("config: decryption failed (wrong password?): %w", err)
	}

	var keys []string
	if err := json.Unmarshal(plaintext, &keys); err != nil {
		return nil, fmt.Errorf("config: decoding keys: %w", err)
	}
	return keys, nil
}

// ResolveKeys resolves the odds API key list from the configuration.
//
// Resolution order:
//  1. If Keys is non-empty, return it directly.
//  2. If EncryptedKeysPath is set, read the file and decrypt with
//     KeysPassword.
//  3. Otherwise, return an error.
func ResolveKeys(oc OddsAPIConfig) ([]string, error) {
	// 1. Inline keys take precedence.
	if len(oc.Keys) > 0 {
		return oc.Keys, nil
	}

	// 2. Encrypted keys file.
	if oc.EncryptedKeysPath != "" {
		data, err := os.ReadFile(oc.EncryptedKeysPath)
		if err != nil {
			return nil, fmt.Errorf("config: reading encrypted keys file: %w", err)
		}
		return DecryptKeys(data, oc.KeysPassword)
	}

	return nil, errors.New("config: no odds API key source configured (set odds_api.keys or odds_api.encrypted_keys_path)")
}

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Every odds API key is a secret.
	out.OddsAPI = cfg.OddsAPI
	if len(cfg.OddsAPI.Keys) > 0 {
		out.OddsAPI.Keys = make([]string, len(cfg.OddsAPI.Keys))
		for i := range out.OddsAPI.Keys {
			out.OddsAPI.Keys[i] = redacted
		}
	}
	redact(&out.OddsAPI.KeysPassword)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.OddsAPI.Regions != nil {
		out.OddsAPI.Regions = make([]string, len(cfg.OddsAPI.Regions))
		copy(out.OddsAPI.Regions, cfg.OddsAPI.Regions)
	}
	if cfg.Scanner.Sports != nil {
		out.Scanner.Sports = make([]string, len(cfg.Scanner.Sports))
		copy(out.Scanner.Sports, cfg.Scanner.Sports)
	}
	if cfg.Scanner.Markets != nil {
		out.Scanner.Markets = make([]string, len(cfg.Scanner.Markets))
		copy(out.Scanner.Markets, cfg.Scanner.Markets)
	}
	if cfg.Scanner.Bookmakers != nil {
		out.Scanner.Bookmakers = make([]string, len(cfg.Scanner.Bookmakers))
		copy(out.Scanner.Bookmakers, cfg.Scanner.Bookmakers)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
