package authmw

import "github.com/labstack/echo/v4"

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxRole     = "role"
)

func setUserContext(c echo.Context, id uint, username, role string) {
	c.Set(ctxUserID, id)
	c.Set(ctxUsername, username)
	c.Set(ctxRole, role)
}

// UserID returns the authenticated caller, if any.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}
