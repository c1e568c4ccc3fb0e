package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"boards/internal/forms"
	"boards/internal/middleware"
	"boards/internal/models"
	"boards/internal/services"
	"boards/internal/store"
	"boards/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const captchaSessionKey = "captcha_answer"

const invalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type AuthHandler struct {
	users          store.UserStore
	captchaService *services.CaptchaService
}

func NewAuthHandler(users store.UserStore, captcha *services.CaptchaService) *AuthHandler {
	return &AuthHandler{
		users:          users,
		captchaService: captcha,
	}
}

// renderSignup shows the form with a fresh captcha whose answer is kept in the session.
func (h *AuthHandler) renderSignup(c *gin.Context, form *forms.SignUpForm, fe forms.FieldErrors) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	if err := session.Save(); err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "signup.html", gin.H{
		"Form":    form,
		"Errors":  fe,
		"Captcha": question,
	})
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	h.renderSignup(c, &forms.SignUpForm{}, nil)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	var form forms.SignUpForm
	_ = c.ShouldBind(&form)

	fe := forms.Validate(&form)
	if fe == nil {
		fe = forms.FieldErrors{}
	}

	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	session.Delete(captchaSessionKey)
	if !fe.Has("captcha") && (!ok || !h.captchaService.Verify(form.Captcha, expected)) {
		fe.Add("captcha", "Incorrect answer, please try again.")
	}

	if !fe.Has("username") {
		_, err := h.users.GetUserByUsername(ctx, form.Username)
		switch {
		case err == nil:
			fe.Add("username", "A user with that username already exists.")
		case !errors.Is(err, store.ErrNotFound):
			handleError(c, err)
			return
		}
	}

	if len(fe) > 0 {
		h.renderSignup(c, &form, fe)
		return
	}

	hash, err := utils.HashPassword(form.Password1)
	if err != nil {
		handleError(c, err)
		return
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.renderSignup(c, &form, forms.FieldErrors{"username": "A user with that username already exists."})
			return
		}
		handleError(c, err)
		return
	}
	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)

	if err := middleware.Login(c, user); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "login.html", gin.H{
		"Form": &forms.LoginForm{},
		"Next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var form forms.LoginForm
	_ = c.ShouldBind(&form)
	next := c.PostForm("next")

	fail := func(fe forms.FieldErrors) {
		Render(c, http.StatusOK, "login.html", gin.H{
			"Form":   &form,
			"Errors": fe,
			"Next":   next,
		})
	}

	if fe := forms.Validate(&form); fe != nil {
		fail(fe)
		return
	}

	user, err := h.users.GetUserByUsername(ctx, form.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		handleError(c, err)
		return
	}
	if err != nil || !utils.CheckPasswordHash(form.Password, user.Password) {
		fail(forms.FieldErrors{forms.NonFieldKey: invalidLogin})
		return
	}

	if err := h.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		slog.WarnContext(ctx, "update last login", "user_id", user.ID, "error", err)
	}
	if err := middleware.Login(c, user); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, middleware.SafeNext(next, "/"))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		slog.WarnContext(c.Request.Context(), "logout", "error", err)
	}
	c.Redirect(http.StatusFound, "/")
}
