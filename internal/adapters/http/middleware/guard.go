package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/metrics"
	"loanlink-portal/internal/pkg/response"
)

// Roles is the part of the role resolver the guard uses
type Roles interface {
	State(email string) (domain.Role, bool)
	Resolve(ctx context.Context, ident *domain.Identity, tokens httpclient.TokenSource) (domain.Role, error)
}

// retryAfterSeconds is sent with the loading placeholder
const retryAfterSeconds = 1

// Guard admits a request by the route table. It waits up to wait for the
// session restore and the role lookup to settle before deciding; a request
// still undecided then gets the loading placeholder.
func Guard(table *guard.Table, roles Roles, wait time.Duration, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "session middleware not installed")
		}

		chain := table.Chain(c.Path())
		ctx, cancel := context.WithTimeout(c.UserContext(), wait)
		defer cancel()

		if guard.RequiresIdentity(chain) {
			select {
			case <-sess.Store.Ready():
			case <-ctx.Done():
			}
		}

		ident := sess.Store.Current()
		st := guard.State{SessionLoading: sess.Store.Loading(), Identity: ident}
		if ident != nil {
			st.Role, st.RoleLoading = roles.State(ident.Email)
			if st.RoleLoading && guard.RequiresIdentity(chain) {
				if role, err := roles.Resolve(ctx, ident, sess.Store); err == nil {
					st.Role, st.RoleLoading = role, false
				}
			}
		}

		d := guard.Evaluate(c.OriginalURL(), chain, st)
		metrics.RecordGuardDecision(d.Outcome.String())

		switch d.Outcome {
		case guard.Allow:
			c.Locals(localViewer, services.Viewer{Session: sess, Identity: ident, Role: st.Role})
			return c.Next()
		case guard.Redirect:
			if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
				return c.Redirect(d.Location, fiber.StatusFound)
			}
			return response.LoginRequired(c, d.Location)
		case guard.Deny:
			log.WithFields(logrus.Fields{"path": c.Path(), "email": ident.Email, "role": st.Role}).Info("🚫 Navigation denied")
			return response.Forbidden(c, d.Message)
		default:
			return response.Pending(c, "Loading...", retryAfterSeconds)
		}
	}
}

// ViewDeadline bounds how long a GET view waits for its data. A view whose
// resources have not settled by then renders the loading placeholder; the
// loads keep running in the session's resource store.
func ViewDeadline(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
