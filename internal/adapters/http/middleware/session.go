package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/config"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/core/session"
	"loanlink-portal/internal/pkg/jwt"
)

// SessionCookie carries the signed browser-session token
const SessionCookie = "ll_session"

// Locals keys
const (
	localSession = "session"
	localViewer  = "viewer"
)

// Sessions is the part of the session registry the middleware uses
type Sessions interface {
	Get(id string) *session.Session
	New() *session.Session
}

// SessionOptions configures the session middleware
type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Cookie config.CookieConfig
}

// Session attaches the browser session to the request. The session token
// is read from the cookie first, then from the Authorization header. A
// missing or invalid token starts a new anonymous session.
func Session(sessions Sessions, opts SessionOptions, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if token != "" {
			claims, err := jwt.ValidateSessionToken(token, opts.Secret)
			if err == nil {
				c.Locals(localSession, sessions.Get(claims.SessionID))
				return c.Next()
			}
			log.WithError(err).Debug("Discarding session token")
		}

		sess := sessions.New()
		signed, err := jwt.GenerateSessionToken(sess.ID, opts.Secret, opts.TTL)
		if err != nil {
			return err
		}
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    signed,
			Path:     "/",
			Domain:   opts.Cookie.Domain,
			Expires:  time.Now().Add(opts.TTL),
			Secure:   opts.Cookie.Secure,
			HTTPOnly: true,
			SameSite: opts.Cookie.SameSite,
		})
		c.Set("X-Session-Token", signed)
		c.Locals(localSession, sess)
		return c.Next()
	}
}

// SessionFrom returns the session attached by Session, or nil
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

// ViewerFrom returns the viewer the guard admitted. Routes the guard did
// not run on get the session's identity with no role.
func ViewerFrom(c *fiber.Ctx) services.Viewer {
	if v, ok := c.Locals(localViewer).(services.Viewer); ok {
		return v
	}
	sess := SessionFrom(c)
	if sess == nil {
		return services.Viewer{}
	}
	return services.Viewer{Session: sess, Identity: sess.Store.Current()}
}
