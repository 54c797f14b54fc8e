package website

import (
	"errors"
	"net/http"
	"time"

	"git.hoosierptk.dev/forums/forums/src/auth"
	"git.hoosierptk.dev/forums/forums/src/forms"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/templates"
)

type SignupPageData struct {
	templates.BaseData
	SubmitUrl string
	Form      forms.SignupForm
	Errors    forms.FieldErrors
}

func Signup(c *RequestContext) ResponseData {
	if c.CurrentUser != nil {
		return c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	}

	var res ResponseData
	res.MustWriteTemplate("signup.html", SignupPageData{
		BaseData:  getBaseData(c, "Sign up"),
		SubmitUrl: forumurl.BuildSignup(),
	}, c.Perf)
	return res
}

func SignupSubmit(c *RequestContext) ResponseData {
	values, err := c.GetFormValues()
	if err != nil {
		return c.RejectRequest("request must contain form data")
	}

	form := forms.NewSignupForm(values)
	showErrors := func(errs forms.FieldErrors) ResponseData {
		// Passwords never go back out to the browser.
		form.Password1, form.Password2 = "", ""

		var res ResponseData
		res.MustWriteTemplate("signup.html", SignupPageData{
			BaseData:  getBaseData(c, "Sign up"),
			SubmitUrl: forumurl.BuildSignup(),
			Form:      form,
			Errors:    errs,
		}, c.Perf)
		return res
	}

	if errs := forms.Validate(form); errs != nil {
		return showErrors(errs)
	}

	user, err := forumdata.RegisterUser(c, c.Conn, form.Username, form.Password1)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			var errs forms.FieldErrors
			errs.Add("username", "A user with that username already exists.")
			return showErrors(errs)
		}
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to create user"))
	}
	c.Logger.Info().Str("username", user.Username).Msg("new user signed up")

	res := c.Redirect(forumurl.BuildUpdateProfile(), http.StatusSeeOther)
	if err := loginUser(c, user, &res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return res
}

type SigninPageData struct {
	templates.BaseData
	SubmitUrl string
	Form      forms.SigninForm
	Errors    forms.FieldErrors
}

// signinRedirect is where to go after a successful sign in. Anything that
// isn't a path on this site is ignored.
func signinRedirect(c *RequestContext) string {
	redirect := c.Req.URL.Query().Get("redirect")
	if forumurl.IsLocalRedirect(redirect) {
		return redirect
	}
	return ""
}

func Signin(c *RequestContext) ResponseData {
	if c.CurrentUser != nil {
		return c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	}

	var res ResponseData
	res.MustWriteTemplate("signin.html", SigninPageData{
		BaseData:  getBaseData(c, "Sign in"),
		SubmitUrl: forumurl.BuildSigninWithRedirect(signinRedirect(c)),
	}, c.Perf)
	return res
}

func SigninSubmit(c *RequestContext) ResponseData {
	values, err := c.GetFormValues()
	if err != nil {
		return c.RejectRequest("request must contain form data")
	}

	redirect := signinRedirect(c)
	form := forms.NewSigninForm(values)
	showErrors := func(errs forms.FieldErrors) ResponseData {
		form.Password = ""

		var res ResponseData
		res.MustWriteTemplate("signin.html", SigninPageData{
			BaseData:  getBaseData(c, "Sign in"),
			SubmitUrl: forumurl.BuildSigninWithRedirect(redirect),
			Form:      form,
			Errors:    errs,
		}, c.Perf)
		return res
	}

	if errs := forms.Validate(form); errs != nil {
		return showErrors(errs)
	}

	user, err := auth.AuthenticateUser(c, c.Conn, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			var errs forms.FieldErrors
			errs.Add("__all__", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
			return showErrors(errs)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if redirect == "" {
		redirect = forumurl.BuildHomepage()
	}
	res := c.Redirect(redirect, http.StatusSeeOther)
	if err := loginUser(c, user, &res); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return res
}

func Logout(c *RequestContext) ResponseData {
	res := c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	logoutUser(c, &res)
	return res
}

func loginUser(c *RequestContext, user *models.User, res *ResponseData) error {
	defer c.Perf.StartBlock("SQL", "Setting last login and creating session").End()

	tx, err := c.Conn.Begin(c)
	if err != nil {
		return oops.New(err, "failed to start db transaction")
	}
	defer tx.Rollback(c)

	if err := auth.SetLastLogin(c, tx, user.ID, time.Now()); err != nil {
		return err
	}

	session, err := auth.CreateSession(c, tx, user.Username)
	if err != nil {
		return oops.New(err, "failed to create session")
	}

	if err := tx.Commit(c); err != nil {
		return oops.New(err, "failed to commit transaction")
	}

	res.SetCookie(auth.NewSessionCookie(session))
	return nil
}

func logoutUser(c *RequestContext, res *ResponseData) {
	sessionCookie, err := c.Req.Cookie(auth.SessionCookieName)
	if err == nil {
		// clear the session from the db immediately, no expiration
		err := auth.DeleteSession(c, c.Conn, sessionCookie.Value)
		if err != nil {
			logging.Error().Err(err).Msg("failed to delete session on logout")
		}
	}

	res.SetCookie(auth.DeleteSessionCookie)
}
