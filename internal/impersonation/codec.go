package impersonation

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/opsdesk/admin-console-go/internal/model"
)

// schemaVersion is embedded in every cookie payload so older cookies can be
// rejected cleanly after a field change instead of half-decoding.
const schemaVersion = 1

// Codec serializes impersonation state into opaque, tamper-evident cookie
// values. The wire form is base64url(JSON envelope) + "." + hex(HMAC-SHA256),
// which uses only cookie-safe characters. Decoding fails closed: any
// malformed, resigned, expired or schema-mismatched value decodes to nil.
type Codec struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for expiry tests
	now func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type envelope struct {
	Version   int             `json:"v"`
	ExpiresAt int64           `json:"exp"`
	Data      json.RawMessage `json:"data"`
}

func (c *Codec) EncodeSession(session model.ImpersonationSession) (string, error) {
	return c.encode(session)
}

func (c *Codec) DecodeSession(value string) *model.ImpersonationSession {
	raw := c.decode(value)
	if raw == nil {
		return nil
	}
	var session model.ImpersonationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil
	}
	if session.AdminID == "" {
		return nil
	}
	return &session
}

func (c *Codec) EncodeTarget(target model.ImpersonationTarget) (string, error) {
	return c.encode(target)
}

func (c *Codec) DecodeTarget(value string) *model.ImpersonationTarget {
	raw := c.decode(value)
	if raw == nil {
		return nil
	}
	var target model.ImpersonationTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		return nil
	}
	if target.UserID == "" {
		return nil
	}
	return &target
}

func (c *Codec) encode(data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	env, err := json.Marshal(envelope{
		Version:   schemaVersion,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
		Data:      raw,
	})
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(env)
	return payload + "." + c.sign(payload), nil
}

func (c *Codec) decode(value string) json.RawMessage {
	if value == "" {
		return nil
	}

	payload, sig, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(c.sign(payload)), []byte(sig)) != 1 {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Version != schemaVersion {
		return nil
	}
	if c.now().Unix() > env.ExpiresAt {
		return nil
	}

	return env.Data
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
