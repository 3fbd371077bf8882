package users

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rcoutinho/pdvgo/internal/backend"
	"github.com/rcoutinho/pdvgo/internal/session"
	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
	"github.com/rcoutinho/pdvgo/pkg/logger"
)

type api interface {
	ListUsers(ctx context.Context) ([]backend.User, error)
	CreateUser(ctx context.Context, input backend.CreateUserInput) (*backend.User, error)
	UpdateUser(ctx context.Context, id int64, input backend.UpdateUserInput) (*backend.User, error)
	DeactivateUser(ctx context.Context, id int64) error
}

type sessions interface {
	Snapshot() session.Snapshot
}

// Service backs the user administration screen. Managers administer
// accounts, but only an admin may grant the admin role.
type Service struct {
	api      api
	sessions sessions
	validate *validator.Validate
	log      *logger.Logger
}

// NewService wires the account admin operations.
func NewService(api api, sessions sessions, log *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("user api required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		api:      api,
		sessions: sessions,
		validate: validator.New(),
		log:      log,
	}, nil
}

func (s *Service) callerRole() (enums.Role, error) {
	snap := s.sessions.Snapshot()
	if !snap.Authenticated() || !snap.Credentials.Role.AtLeast(enums.RoleManager) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "user administration requires manager access")
	}
	return snap.Credentials.Role, nil
}

func checkGrantedRole(caller, granted enums.Role) error {
	if !granted.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}
	if granted == enums.RoleAdmin && caller != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may grant the admin role")
	}
	return nil
}

// List fetches all operator accounts.
func (s *Service) List(ctx context.Context) ([]backend.User, error) {
	if _, err := s.callerRole(); err != nil {
		return nil, err
	}
	return s.api.ListUsers(ctx)
}

// Create registers a new account.
func (s *Service) Create(ctx context.Context, input backend.CreateUserInput) (*backend.User, error) {
	caller, err := s.callerRole()
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account")
	}
	if err := checkGrantedRole(caller, input.Role); err != nil {
		return nil, err
	}
	created, err := s.api.CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}
	s.log.Info(s.log.WithField(ctx, "user_id", created.ID), "account created")
	return created, nil
}

// Update edits an account; an empty password field means keep the current
// one and is never sent.
func (s *Service) Update(ctx context.Context, id int64, input backend.UpdateUserInput) (*backend.User, error) {
	caller, err := s.callerRole()
	if err != nil {
		return nil, err
	}
	if input.Password != nil && *input.Password == "" {
		input.Password = nil
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account")
	}
	if err := checkGrantedRole(caller, input.Role); err != nil {
		return nil, err
	}
	return s.api.UpdateUser(ctx, id, input)
}

// Deactivate disables an account. Operators cannot disable themselves: the
// terminal would be left signed in on a dead credential.
func (s *Service) Deactivate(ctx context.Context, id int64, callerID int64) error {
	if _, err := s.callerRole(); err != nil {
		return err
	}
	if id == callerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate your own account").
			WithDetail("Você não pode desativar o seu próprio usuário.")
	}
	if err := s.api.DeactivateUser(ctx, id); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "user_id", id), "account deactivated")
	return nil
}
