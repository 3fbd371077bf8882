package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Login exchanges operator credentials for an access token. The backend
// expects OAuth2-style form data, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var result LoginResult
	err := c.do(ctx, requestSpec{
		operation: "login",
		method:    http.MethodPost,
		path:      "/token",
		formBody:  form,
		skipAuth:  true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
