package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/service"
)

const invalidLoginMsg = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func (h *Handler) SignUp(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "users/signup.html", gin.H{"title": "Sign up"})
		return
	}
	var form service.SignUpForm
	_ = c.ShouldBind(&form)
	if _, err := h.userService.SignUp(c.Request.Context(), form); err != nil {
		if errs, ok := h.formErrors(c, err); ok {
			h.render(c, http.StatusOK, "users/signup.html", gin.H{
				"title":  "Sign up",
				"form":   postedValues(c, "first_name", "last_name", "username", "email"),
				"errors": errs,
			})
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Login 成功后跳转到 next（仅站内地址）
func (h *Handler) Login(c *gin.Context) {
	next := auth.SafeNext(c.Query("next"), "/")
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "users/login.html", gin.H{"title": "Log in", "next": next})
		return
	}
	var form service.LoginForm
	_ = c.ShouldBind(&form)
	user, err := h.userService.Authenticate(c.Request.Context(), form)
	if err != nil {
		errs, isForm := service.AsFormErrors(err)
		switch {
		case isForm:
		case errors.Is(err, service.ErrInvalidCredentials):
			errs = service.FormErrors{service.NonFieldKey: invalidLoginMsg}
		default:
			h.fail(c, err)
			return
		}
		h.render(c, http.StatusOK, "users/login.html", gin.H{
			"title":  "Log in",
			"next":   next,
			"form":   postedValues(c, "username"),
			"errors": errs,
		})
		return
	}
	if err := auth.LoadSession(c).Login(user); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, next)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := auth.LoadSession(c).Logout(); err != nil {
		h.fail(c, err)
		return
	}
	auth.SetCurrentUser(c, nil)
	h.render(c, http.StatusOK, "users/logged_out.html", gin.H{"title": "Logged out"})
}

func (h *Handler) PasswordChange(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "users/password_change_form.html", gin.H{"title": "Password change"})
		return
	}
	var form service.PasswordChangeForm
	_ = c.ShouldBind(&form)
	user := auth.CurrentUser(c)
	if err := h.userService.ChangePassword(c.Request.Context(), user, form); err != nil {
		if errs, ok := h.formErrors(c, err); ok {
			h.render(c, http.StatusOK, "users/password_change_form.html", gin.H{
				"title":  "Password change",
				"errors": errs,
			})
		}
		return
	}
	// 改密后刷新 session
	if err := auth.LoadSession(c).Login(user); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/auth/password_change/done/")
}

func (h *Handler) PasswordChangeDone(c *gin.Context) {
	h.render(c, http.StatusOK, "users/password_change_done.html", gin.H{"title": "Password change successful"})
}

func (h *Handler) PasswordReset(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "users/password_reset_form.html", gin.H{"title": "Password reset"})
		return
	}
	var form service.PasswordResetForm
	_ = c.ShouldBind(&form)
	user, token, err := h.userService.RequestPasswordReset(c.Request.Context(), form)
	if err != nil {
		if errs, ok := h.formErrors(c, err); ok {
			h.render(c, http.StatusOK, "users/password_reset_form.html", gin.H{
				"title":  "Password reset",
				"form":   postedValues(c, "email"),
				"errors": errs,
			})
		}
		return
	}
	if user != nil {
		h.onPasswordReset(user, resetLink(c, token))
	}
	c.Redirect(http.StatusFound, "/auth/password_reset/done/")
}

func resetLink(c *gin.Context, token string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/auth/reset/" + token + "/"
}

func (h *Handler) PasswordResetDone(c *gin.Context) {
	h.render(c, http.StatusOK, "users/password_reset_done.html", gin.H{"title": "Password reset sent"})
}

func (h *Handler) PasswordResetConfirm(c *gin.Context) {
	token := c.Param("token")
	data := gin.H{"title": "Enter new password", "token": token, "validlink": true}

	if c.Request.Method == http.MethodGet {
		if _, err := h.userService.CheckResetToken(c.Request.Context(), token); err != nil {
			if !errors.Is(err, service.ErrInvalidToken) {
				h.fail(c, err)
				return
			}
			data["validlink"] = false
		}
		h.render(c, http.StatusOK, "users/password_reset_confirm.html", data)
		return
	}

	var form service.SetPasswordForm
	_ = c.ShouldBind(&form)
	_, err := h.userService.ResetPassword(c.Request.Context(), token, form)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/auth/password_reset/complete/")
	case errors.Is(err, service.ErrInvalidToken):
		data["validlink"] = false
		h.render(c, http.StatusOK, "users/password_reset_confirm.html", data)
	default:
		if errs, ok := h.formErrors(c, err); ok {
			data["errors"] = errs
			h.render(c, http.StatusOK, "users/password_reset_confirm.html", data)
		}
	}
}

func (h *Handler) PasswordResetComplete(c *gin.Context) {
	h.render(c, http.StatusOK, "users/password_reset_complete.html", gin.H{"title": "Password reset complete"})
}
