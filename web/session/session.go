// Package session tracks the currently authenticated profile in the cookie
// session, independently of the profile store. A missing or undecodable
// session value always reads as anonymous.
package session

import (
	"encoding/gob"

	"github.com/greenpoints/gp-ui/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const activeSession = "ACTIVE_SESSION"

func init() {
	gob.Register(model.UserProfile{})
}

// SetLoginUser stores the profile as the active session. Called on login and
// again whenever the user's own profile changes (deposit, rename).
func SetLoginUser(c *gin.Context, user *model.UserProfile) error {
	s := sessions.Default(c)
	s.Set(activeSession, *user)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

// GetLoginUser returns the session profile, or nil when anonymous. The
// stored value may reference a profile that no longer exists in the store;
// that soft reference is intentional.
func GetLoginUser(c *gin.Context) *model.UserProfile {
	s := sessions.Default(c)
	if obj := s.Get(activeSession); obj != nil {
		if user, ok := obj.(model.UserProfile); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

// ClearSession removes the session record entirely and expires the cookie.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie("gp-ui", "", -1, "/", "", false, true)
	return nil
}
