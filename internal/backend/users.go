package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rcoutinho/pdvgo/pkg/enums"
)

// CreateUserInput is the payload for registering an operator account.
type CreateUserInput struct {
	Name     string     `json:"name" validate:"required"`
	Username string     `json:"username" validate:"required,min=3"`
	Password string     `json:"password" validate:"required,min=4"`
	Role     enums.Role `json:"role" validate:"required"`
}

// UpdateUserInput carries the editable fields of an account. Password is
// only sent when the operator typed a new one.
type UpdateUserInput struct {
	Name     string     `json:"name" validate:"required"`
	Role     enums.Role `json:"role" validate:"required"`
	Password *string    `json:"password,omitempty" validate:"omitempty,min=4"`
}

// ListUsers fetches all operator accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.do(ctx, requestSpec{
		operation: "list_users",
		method:    http.MethodGet,
		path:      "/users/",
	}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser registers a new operator account.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	var created User
	err := c.do(ctx, requestSpec{
		operation: "create_user",
		method:    http.MethodPost,
		path:      "/users/",
		jsonBody:  input,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser updates an existing account.
func (c *Client) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*User, error) {
	var updated User
	err := c.do(ctx, requestSpec{
		operation: "update_user",
		method:    http.MethodPut,
		path:      fmt.Sprintf("/users/%d", id),
		jsonBody:  input,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeactivateUser disables an account.
func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	return c.do(ctx, requestSpec{
		operation: "deactivate_user",
		method:    http.MethodDelete,
		path:      fmt.Sprintf("/users/%d", id),
	}, nil)
}
