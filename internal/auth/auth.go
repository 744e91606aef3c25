// Package auth authenticates players attaching to a room's socket. When no
// session-provider secret is configured, the query-supplied player id is
// trusted (or a fresh anonymous id is minted); when a secret is configured,
// the request must carry a bearer token whose claims are sanity-checked and
// whose session is confirmed live against the provider's session endpoint.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"roomforge/internal/ids"
)

// DefaultProviderBaseURL is the session-provider base used when Config does
// not override it.
const DefaultProviderBaseURL = "https://api.clerk.com/v1"

// Config parameterizes authentication. SecretKey toggles strict mode: empty
// means the query-supplied player id is trusted.
type Config struct {
	SecretKey       string
	ProviderBaseURL string
	HTTPClient      *http.Client
}

func (c Config) baseURL() string {
	if c.ProviderBaseURL != "" {
		return c.ProviderBaseURL
	}
	return DefaultProviderBaseURL
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Authenticate resolves the player id for an upgrade request's query
// parameters. With no secret key configured it trusts (or mints) a player
// id; otherwise it requires and verifies a bearer token.
func Authenticate(ctx context.Context, query url.Values, cfg Config) (string, error) {
	playerIDFromQuery, hasQueryID := ids.SanitizePlayerID(query.Get("playerId"))
	token := query.Get("token")

	if cfg.SecretKey == "" {
		if hasQueryID {
			return playerIDFromQuery, nil
		}
		return ids.RandomPlayerID(), nil
	}

	if token == "" {
		return "", errors.New("auth: missing token")
	}
	claims, err := parseClaimsUnverified(token)
	if err != nil {
		return "", err
	}

	candidate := claims.Subject
	if hasQueryID {
		candidate = playerIDFromQuery
	}
	playerID, ok := ids.SanitizePlayerID(candidate)
	if !ok {
		return "", errors.New("auth: invalid player id")
	}

	// The raw subject must equal the sanitized player id exactly; a subject
	// that only differs in characters sanitization strips is rejected even
	// though it would resolve to the same player id.
	if claims.Subject != playerID {
		return "", errors.New("auth: token subject does not match player id")
	}

	if claims.Expiry == 0 {
		return "", errors.New("auth: token missing exp claim")
	}
	if claims.Expiry <= time.Now().Unix() {
		return "", errors.New("auth: token expired")
	}

	if claims.SessionID == "" {
		return "", errors.New("auth: token missing sid claim")
	}
	if err := verifySession(ctx, cfg, claims.SessionID, playerID); err != nil {
		return "", err
	}

	return playerID, nil
}

type claims struct {
	Subject   string
	SessionID string
	Expiry    int64
}

// parseClaimsUnverified decodes the claims segment of a JWT without
// verifying its signature; the provider session check below is what
// actually establishes trust.
func parseClaimsUnverified(token string) (claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return claims{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	out := claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		out.Subject = sub
	}
	if sid, ok := mapClaims["sid"].(string); ok {
		out.SessionID = sid
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Unix()
	}
	return out, nil
}

type sessionResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// verifySession calls the session provider's session endpoint and confirms
// it belongs to playerID and, if reported, is active.
func verifySession(ctx context.Context, cfg Config, sessionID, playerID string) error {
	url := fmt.Sprintf("%s/sessions/%s", cfg.baseURL(), sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)

	resp, err := cfg.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("auth: session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: session verification failed with status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("auth: invalid session response: %w", err)
	}
	if session.UserID != playerID {
		return errors.New("auth: session user mismatch")
	}
	if session.Status != "" && session.Status != "active" {
		return errors.New("auth: session not active")
	}
	return nil
}
