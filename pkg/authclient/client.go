package authclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aussiebroadwan/sdaportal/pkg/authclient"

// Endpoint paths on the auth backend.
const (
	PathLogin   = "/api/auth/login"
	PathRefresh = "/api/auth/refresh"
	PathLogout  = "/api/auth/logout"
	PathMe      = "/api/auth/me"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tracer trace.Tracer
}

// New returns a client for the backend at baseURL with a 10 second timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		tracer:     otel.Tracer(tracerName),
	}
}

func (c *Client) start(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	t := c.tracer
	if t == nil {
		t = otel.Tracer(tracerName)
	}
	return t.Start(ctx, "authclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			span.SetAttributes(attribute.Int("http.response.status_code", apiErr.StatusCode))
		}
	}
	span.End()
}

// Login exchanges a username and password for a credential pair and the
// user's profile.
func (c *Client) Login(ctx context.Context, username, password string) (_ LoginResponse, err error) {
	ctx, span := c.start(ctx, "Login", http.MethodPost, PathLogin)
	defer func() { finish(span, err) }()

	resp, err := c.doRequest(ctx, http.MethodPost, PathLogin, LoginRequest{Username: username, Password: password}, "")
	if err != nil {
		return LoginResponse{}, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.Access == "" || out.Refresh == "" {
		return LoginResponse{}, ErrEmptyToken
	}
	return out, nil
}

// Refresh presents refreshToken as the bearer credential, with an empty
// body, and returns the newly issued access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (_ string, err error) {
	ctx, span := c.start(ctx, "Refresh", http.MethodPost, PathRefresh)
	defer func() { finish(span, err) }()

	resp, err := c.doRequest(ctx, http.MethodPost, PathRefresh, nil, refreshToken)
	if err != nil {
		return "", err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", ErrEmptyToken
	}
	return out.Access, nil
}

// Logout tells the backend the session is over.
func (c *Client) Logout(ctx context.Context, accessToken string) (err error) {
	ctx, span := c.start(ctx, "Logout", http.MethodPost, PathLogout)
	defer func() { finish(span, err) }()

	resp, err := c.doRequest(ctx, http.MethodPost, PathLogout, nil, accessToken)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// Me asks the backend who the access token belongs to. Unlike the guard,
// the backend verifies the signature.
func (c *Client) Me(ctx context.Context, accessToken string) (_ User, err error) {
	ctx, span := c.start(ctx, "Me", http.MethodGet, PathMe)
	defer func() { finish(span, err) }()

	resp, err := c.doRequest(ctx, http.MethodGet, PathMe, nil, accessToken)
	if err != nil {
		return User{}, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return User{}, err
	}
	return out, nil
}
