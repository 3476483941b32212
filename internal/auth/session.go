package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const sessionUserIDKey = "user_id"

var store *session.Store

// InitSessionStore server-side session store'u kurar. main.go'da bir kez çağrılır.
// Session id opak bir cookie'dir ("sid"); kullanıcı bilgisi sunucu tarafında tutulur.
func InitSessionStore() {
	store = session.New(session.Config{
		KeyLookup:      "cookie:sid",
		Expiration:     24 * time.Hour,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// CreateSession login sonrası yeni bir session açar. Session fixation'a karşı
// önce mevcut session yok edilir.
func CreateSession(c *fiber.Ctx, userID uint) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserIDKey, userID)
	return sess.Save()
}

// SessionUserID geçerli session'daki kullanıcı id'sini döner; session yoksa 0.
func SessionUserID(c *fiber.Ctx) uint {
	sess, err := store.Get(c)
	if err != nil {
		return 0
	}
	if v, ok := sess.Get(sessionUserIDKey).(uint); ok {
		return v
	}
	return 0
}

// DestroySession logout'ta session'ı tamamen siler.
func DestroySession(c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
