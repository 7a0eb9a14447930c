package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TokenSource supplies bearer tokens for the Agent Engine endpoint.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Useful for tests and for
// environments that inject a short-lived token at startup.
type StaticTokenSource string

// Token returns the static token.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// GcloudTokenSource shells out to the gcloud CLI for an access token,
// matching how operators authenticate during development.
type GcloudTokenSource struct{}

// Token runs `gcloud auth print-access-token` and returns the result.
func (GcloudTokenSource) Token(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "gcloud", "auth", "print-access-token").Output()
	if err != nil {
		return "", fmt.Errorf("get access token (run `gcloud auth login`?): %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("gcloud returned an empty access token")
	}
	return token, nil
}
