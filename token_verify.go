package checkauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

// TokenVerifier turns a token returned by the check endpoint into user info
// without tying callers to a specific verification implementation.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*UserInfo, error)
}

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(ctx context.Context, token string) (*UserInfo, error)

// VerifyToken satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) VerifyToken(ctx context.Context, token string) (*UserInfo, error) {
	if f == nil {
		return nil, ErrVerificationFailed
	}
	return f(ctx, token)
}

// MultiTokenVerifier tries verifiers in order until one accepts the token,
// returning the last rejection if none does.
type MultiTokenVerifier struct {
	verifiers []TokenVerifier
}

// NewMultiTokenVerifier filters nil verifiers and returns a composite verifier.
func NewMultiTokenVerifier(verifiers ...TokenVerifier) *MultiTokenVerifier {
	filtered := make([]TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenVerifier{verifiers: filtered}
}

// VerifyToken satisfies the TokenVerifier interface.
func (m *MultiTokenVerifier) VerifyToken(ctx context.Context, token string) (*UserInfo, error) {
	var lastErr error
	for _, v := range m.verifiers {
		info, err := v.VerifyToken(ctx, token)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrVerificationFailed
}

type tokenEnvelope struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	JWT         string `json:"jwt"`
}

func (e tokenEnvelope) first() string {
	for _, candidate := range []string{e.Token, e.AccessToken, e.IDToken, e.JWT} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// extractToken pulls a compact token out of the response body. Endpoints may
// answer with a JSON string, an envelope object, or the bare token itself.
func extractToken(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}

	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		str = strings.TrimSpace(str)
		return str, str != ""
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err == nil {
		if token := envelope.first(); token != "" {
			return token, true
		}
	}

	raw := string(trimmed)
	if strings.Count(raw, ".") == 2 && !strings.ContainsAny(raw, " \t\r\n{}[]\"") {
		return raw, true
	}

	return "", false
}
