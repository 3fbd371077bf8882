package users

import (
	"context"
	"testing"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type stubAPI struct {
	created     []backend.CreateUserInput
	updated     []backend.UpdateUserInput
	deactivated []int64
}

func (s *stubAPI) ListUsers(ctx context.Context) ([]backend.User, error) {
	return []backend.User{{ID: 1, Username: "maria"}}, nil
}

func (s *stubAPI) CreateUser(ctx context.Context, input backend.CreateUserInput) (*backend.User, error) {
	s.created = append(s.created, input)
	return &backend.User{ID: int64(len(s.created)), Username: input.Username}, nil
}

func (s *stubAPI) UpdateUser(ctx context.Context, id int64, input backend.UpdateUserInput) (*backend.User, error) {
	s.updated = append(s.updated, input)
	return &backend.User{ID: id, Name: input.Name}, nil
}

func (s *stubAPI) DeactivateUser(ctx context.Context, id int64) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

type stubSessions struct {
	role enums.Role
}

func (s stubSessions) Snapshot() session.Snapshot {
	if s.role == "" {
		return session.Snapshot{}
	}
	return session.Snapshot{Credentials: &session.Credentials{Token: "tok", Role: s.role}}
}

func newTestService(t *testing.T, api *stubAPI, role enums.Role) *Service {
	t.Helper()
	svc, err := NewService(api, stubSessions{role: role}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validCreate() backend.CreateUserInput {
	return backend.CreateUserInput{
		Name:     "Maria Silva",
		Username: "maria",
		Password: "1234",
		Role:     enums.RoleSeller,
	}
}

func TestSellerCannotAdministerAccounts(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubAPI{}, enums.RoleSeller)
	if _, err := svc.List(context.Background()); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), validCreate()); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api, enums.RoleManager)

	short := validCreate()
	short.Password = "123"
	if _, err := svc.Create(context.Background(), short); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	noUser := validCreate()
	noUser.Username = "ab"
	if _, err := svc.Create(context.Background(), noUser); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short username, got %v", err)
	}

	if _, err := svc.Create(context.Background(), validCreate()); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if len(api.created) != 1 {
		t.Fatalf("expected one creation, got %d", len(api.created))
	}
}

func TestOnlyAdminGrantsAdmin(t *testing.T) {
	t.Parallel()

	manager := newTestService(t, &stubAPI{}, enums.RoleManager)
	input := validCreate()
	input.Role = enums.RoleAdmin
	if _, err := manager.Create(context.Background(), input); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("manager granting admin must be refused, got %v", err)
	}

	admin := newTestService(t, &stubAPI{}, enums.RoleAdmin)
	if _, err := admin.Create(context.Background(), input); err != nil {
		t.Fatalf("admin granting admin rejected: %v", err)
	}
}

func TestUpdateDropsEmptyPassword(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api, enums.RoleManager)

	empty := ""
	_, err := svc.Update(context.Background(), 1, backend.UpdateUserInput{
		Name:     "Maria Silva",
		Role:     enums.RoleSeller,
		Password: &empty,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if api.updated[0].Password != nil {
		t.Fatal("blank password must not be sent")
	}
}

func TestCannotDeactivateSelf(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	svc := newTestService(t, api, enums.RoleAdmin)

	err := svc.Deactivate(context.Background(), 7, 7)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected refusal, got %v", err)
	}
	if len(api.deactivated) != 0 {
		t.Fatal("self-deactivation must not reach the backend")
	}

	if err := svc.Deactivate(context.Background(), 7, 1); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}
