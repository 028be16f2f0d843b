package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

var ErrInvalidSession = errors.New("invalid provider session")

// GoTrueClient talks to a GoTrue (Supabase Auth) server.
type GoTrueClient struct {
	baseURL    string
	anonKey    string
	serviceKey string
	jwtSecret  []byte
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

var _ ports.IdentityProvider = (*GoTrueClient)(nil)

type GoTrueConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
	// JWTSecret enables local HS256 verification of access tokens. Without
	// it every session check is a round trip to /auth/v1/user.
	JWTSecret  string
	HTTPClient *http.Client
}

func NewGoTrueClient(cfg GoTrueConfig) *GoTrueClient {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c := &GoTrueClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: client,
		cb:         config.NewCircuitBreaker(config.BreakerIdentity),
	}
	if cfg.JWTSecret != "" {
		c.jwtSecret = []byte(cfg.JWTSecret)
	}
	return c
}

type gotrueClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *GoTrueClient) VerifySession(ctx context.Context, token string) (*domain.ProviderUser, error) {
	if c.jwtSecret != nil {
		return c.verifyLocally(token)
	}

	var user gotrueUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if user.ID == "" {
		return nil, ErrInvalidSession
	}
	return &domain.ProviderUser{ID: user.ID, Email: user.Email}, nil
}

func (c *GoTrueClient) verifyLocally(token string) (*domain.ProviderUser, error) {
	parsed, err := jwt.ParseWithClaims(token, &gotrueClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims := parsed.Claims.(*gotrueClaims)
	if claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &domain.ProviderUser{ID: claims.Subject, Email: claims.Email}, nil
}

// InviteUser sends GoTrue's invite email. The redirect lands the invitee on
// the admin login page.
func (c *GoTrueClient) InviteUser(ctx context.Context, invite ports.Invite) (string, error) {
	body := map[string]any{
		"email": invite.Email,
		"data": map[string]string{
			"name": invite.Name,
			"role": string(invite.Role),
		},
	}

	path := "/auth/v1/invite"
	if invite.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(invite.RedirectTo)
	}

	var user gotrueUser
	if err := c.do(ctx, http.MethodPost, path, c.serviceKey, body, &user); err != nil {
		return "", fmt.Errorf("invite %s: %w", invite.Email, err)
	}
	return user.ID, nil
}

func (c *GoTrueClient) DeleteUser(ctx context.Context, providerUserID string) error {
	path := "/auth/v1/admin/users/" + url.PathEscape(providerUserID)
	if err := c.do(ctx, http.MethodDelete, path, c.serviceKey, nil, nil); err != nil {
		return fmt.Errorf("delete provider user %s: %w", providerUserID, err)
	}
	return nil
}

// do sends one request through the circuit breaker. bearer is either the
// caller's access token or the service key.
func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}

	// 4xx answers are the caller's fault and must not open the breaker.
	var rejected error
	_, err := c.cb.Execute(func() (interface{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		apiKey := c.anonKey
		if apiKey == "" {
			apiKey = c.serviceKey
		}
		req.Header.Set("apikey", apiKey)
		req.Header.Set("Authorization", "Bearer "+bearer)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			if resp.StatusCode < 500 {
				rejected = statusErr
				return nil, nil
			}
			return nil, statusErr
		}
		if out != nil {
			return nil, json.NewDecoder(resp.Body).Decode(out)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	return rejected
}
