package middleware

import (
	"strconv"
	"time"

	"commust/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	CookieSession   = "commust_session"
	CookieVisitorID = "commust_session_id"
	CookieCartHash  = "commust_cart_hash"
	CookieCartItems = "commust_cart_items"

	sessionLocal = "session"
)

// CookieConfig controls the attributes of every cookie the service writes.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// Session resolves the visitor's session from cookies, minting identifiers on first visit.
// New identifiers are written back so the next request reuses them.
func Session(cfg CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := session.Context{
			StoreKey:  c.Cookies(CookieSession),
			VisitorID: c.Cookies(CookieVisitorID),
		}
		if sc.StoreKey == "" || sc.VisitorID == "" {
			fresh := session.NewContext()
			if sc.StoreKey == "" {
				sc.StoreKey = fresh.StoreKey
			}
			if sc.VisitorID == "" {
				sc.VisitorID = fresh.VisitorID
			}
			setCookie(c, cfg, CookieSession, sc.StoreKey)
			setCookie(c, cfg, CookieVisitorID, sc.VisitorID)
		}
		c.Locals(sessionLocal, sc)
		return c.Next()
	}
}

// CurrentSession returns the session resolved by Session. The zero Context is returned when
// the middleware did not run.
func CurrentSession(c *fiber.Ctx) session.Context {
	sc, _ := c.Locals(sessionLocal).(session.Context)
	return sc
}

// WriteCartCookies mirrors the cart hash and line count into cookies.
func WriteCartCookies(c *fiber.Ctx, cfg CookieConfig, hash string, count int) {
	setCookie(c, cfg, CookieCartHash, hash)
	setCookie(c, cfg, CookieCartItems, strconv.Itoa(count))
}

func setCookie(c *fiber.Ctx, cfg CookieConfig, name, value string) {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if cfg.MaxAge > 0 {
		ck.MaxAge = int(cfg.MaxAge.Seconds())
	}
	c.Cookie(ck)
}
