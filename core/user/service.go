package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrSessionRevoked     = errors.New("session has been signed out")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	// SessionStore remembers signed out sessions (by JWT id) until they expire.
	SessionStore interface {
		Revoke(ctx context.Context, sessionID string, until time.Time) error
		IsRevoked(ctx context.Context, sessionID string) (bool, error)
	}

	Service interface {
		SignUp(ctx context.Context, su SignUp) (User, error)
		SignIn(ctx context.Context, email, pwd string) (User, error)
		SignOut(ctx context.Context, sessionID string, expiresAt time.Time) error
		IsSignedOut(ctx context.Context, sessionID string) (bool, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		HasRole(ctx context.Context, userID, role string) (bool, error)
		SetPassword(ctx context.Context, usr User, pwd string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		sessions SessionStore
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
		tokenGen tokenGenerator
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	sessions SessionStore,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	conf *core.Config,
) Service {
	return newService(repo, sessions, mailSvc, logger, validate, conf)
}

func newService(
	repo Repository,
	sessions SessionStore,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	conf *core.Config,
) *service {
	return &service{
		repo:     repo,
		sessions: sessions,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
		tokenGen: tokenGenerator{secretKey: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeoutDelta},
		conf:     conf,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *service) SignUp(ctx context.Context, su SignUp) (User, error) {
	if err := su.Validate(svc.validate); err != nil {
		return User{}, err
	}
	return svc.create(ctx, su.Name, su.Email, su.Password, []string{RoleStudent})
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	roles := nu.Roles
	if len(roles) == 0 {
		roles = []string{RoleStudent}
	}
	return svc.create(ctx, nu.Name, nu.Email, nu.Password, roles)
}

func (svc *service) create(ctx context.Context, name, email, pwd string, roles []string) (User, error) {
	if err := svc.checkUniqueness(ctx, email); err != nil {
		return User{}, err
	}
	now := core.NowFunc().UTC()
	usr := User{
		Name:      name,
		Email:     email,
		IsActive:  true,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

func (svc *service) SignIn(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = core.NowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

func (svc *service) SignOut(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if sessionID == "" {
		return nil
	}
	return errors.Wrap(svc.sessions.Revoke(ctx, sessionID, expiresAt), "revoking session")
}

func (svc *service) IsSignedOut(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	revoked, err := svc.sessions.IsRevoked(ctx, sessionID)
	return revoked, errors.Wrap(err, "checking session")
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// HasRole reports whether the active user identified by userID holds role.
func (svc *service) HasRole(ctx context.Context, userID, role string) (bool, error) {
	usr, err := svc.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding user by ID")
	}
	return usr.IsActive && usr.HasRole(role), nil
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.mailSvc.SendMessages(svc.passwordResetMail(usr))
	return nil
}

func (svc *service) passwordResetMail(usr User) *core.EmailMessage {
	resetURL := fmt.Sprintf(
		"%s/password-reset/confirm?uid=%s&token=%s",
		svc.conf.FrontendBaseURL, EncodeUID(usr), svc.tokenGen.makeToken(usr),
	)
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: PasswordResetEmailData{Name: usr.Name, ResetURL: resetURL},
	}
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	if err := data.Validate(svc.validate); err != nil {
		return err
	}
	invalid := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: "invalid or expired token"})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return invalid
	}
	return svc.SetPassword(ctx, usr, data.Password)
}
