package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// activeUserMiddleware rejects tokens of deleted or deactivated accounts.
func activeUserMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := auth.contextUser(ctx)
			if err != nil {
				return err
			}
			if !usr.Active() {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// ctxUserOrAdminMiddleware loads the user `:id` into the context as "object"
// when it is the authenticated user or the latter is an admin.
func ctxUserOrAdminMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := auth.contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				usr, err := auth.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
				if err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				}
				if !core.IsNotFound(err) {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

func objectFromContext(ctx echo.Context) (user.User, error) {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return user.User{}, errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return usr, nil
}
