package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rickgao/marketdash/internal/model"
)

// ErrNoToken is returned when the backend answers a login without a token.
var ErrNoToken = errors.New("response carries no token")

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	var sess model.Session
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   loginRequest{User: creds},
	}, &sess)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("login: %w", ErrNoToken)
	}
	return &sess, nil
}

// CurrentUser validates token against GET /me and returns the user it belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	if err := c.get(ctx, request{path: "/me", token: token}, &sess); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &sess, nil
}

// Logout invalidates token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	err := c.send(ctx, request{
		method: http.MethodDelete,
		path:   "/logout",
		token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
