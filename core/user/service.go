package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrInvalidReset   = errors.New("invalid password reset link")

	nowFunc = time.Now
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists if another user
		// (other than excludedID) already uses `username` or `email`.
		CheckUsernameUniqueness(ctx context.Context, username, email, excludedID string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByUsernameOrEmail matches `uname` against both the username and the email.
		GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *tokenGenerator
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()

	return &Service{
		conf:     conf,
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email, excludedID string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, excludedID); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email, ""); err != nil {
		return User{}, err
	}

	now := nowFunc().UTC()
	active := true
	roles := nu.Roles
	if len(roles) == 0 {
		roles = []string{RoleTeacher}
	}
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  &active,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

// Update applies a validated UpdateUser (see UpdateUser.Validate) to the user `id`.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = svc.checkUniqueness(ctx, uu.Username, uu.Email, id); err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.IsActive != nil {
		usr.IsActive = uu.IsActive
	}
	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return err
}

// RequestPasswordReset emails a password reset link to the active user registered with `email`.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.Active() || usr.Email == "" {
		return ErrNotFound
	}

	token, err := svc.tokenGen.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name": usr.Name,
			"URL":  fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, EncodeUID(usr), token),
		},
	})
	return nil
}

// ResetPassword sets a new password from a validated ResetUserPassword.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := DecodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidReset)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrInvalidReset)
		}
		return errors.Wrap(err, "finding user")
	}
	if err = svc.tokenGen.verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(errors.Wrap(err, ErrInvalidReset.Error()))
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
