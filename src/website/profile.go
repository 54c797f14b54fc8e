package website

import (
	"errors"
	"fmt"
	"net/http"

	"git.hoosierptk.dev/forums/forums/src/assets"
	"git.hoosierptk.dev/forums/forums/src/config"
	"git.hoosierptk.dev/forums/forums/src/forms"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/google/uuid"
)

type UpdateProfileTemplateData struct {
	templates.BaseData

	SubmitUrl string
	Form      forms.ProfileForm
	Errors    forms.FieldErrors
}

func UpdateProfile(c *RequestContext) ResponseData {
	profile, err := c.CurrentProfile()
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	form := forms.ProfileForm{Role: models.DefaultRole}
	if profile != nil {
		form = forms.ProfileForm{
			Fullname: profile.Fullname,
			Bio:      profile.Bio,
			Role:     profile.Role,
		}
	}

	var res ResponseData
	res.MustWriteTemplate("update_profile.html", UpdateProfileTemplateData{
		BaseData:  getBaseData(c, "Your profile"),
		SubmitUrl: forumurl.BuildUpdateProfile(),
		Form:      form,
	}, c.Perf)
	return res
}

func UpdateProfileSubmit(c *RequestContext) ResponseData {
	err := c.Req.ParseMultipartForm(maxUploadMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = c.Req.ParseForm()
	}
	if err != nil {
		return c.RejectRequest("request must contain form data")
	}

	form := forms.NewProfileForm(c.Req.PostForm)
	showErrors := func(errs forms.FieldErrors) ResponseData {
		var res ResponseData
		res.MustWriteTemplate("update_profile.html", UpdateProfileTemplateData{
			BaseData:  getBaseData(c, "Your profile"),
			SubmitUrl: forumurl.BuildUpdateProfile(),
			Form:      form,
			Errors:    errs,
		}, c.Perf)
		return res
	}

	if errs := forms.Validate(form); errs != nil {
		return showErrors(errs)
	}

	var avatarID *uuid.UUID
	file, header, err := c.Req.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		asset, err := assets.UploadAvatar(c, c.Conn, c.CurrentUser.ID, header.Filename, file)
		if err != nil {
			var errs forms.FieldErrors
			switch {
			case errors.Is(err, assets.ErrAvatarTooLarge):
				errs.Add("avatar", fmt.Sprintf("Avatars can be at most %d KiB.", config.Config.Avatars.MaxBytes/1024))
				return showErrors(errs)
			case errors.Is(err, assets.ErrNotAnImage):
				errs.Add("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
				return showErrors(errs)
			}
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		avatarID = &asset.ID
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// keep the current avatar
	default:
		return c.RejectRequest("failed to read avatar upload")
	}

	profile, err := forumdata.UpsertProfile(c, c.Conn, c.CurrentUser, forumdata.ProfileInput{
		Fullname:      form.Fullname,
		Bio:           form.Bio,
		Role:          form.Role,
		AvatarAssetID: avatarID,
	})
	if err != nil {
		if slugErrs, ok := slugFieldErrors(err, "fullname", "Someone already goes by a name like this. Pick a different full name."); ok {
			return showErrors(slugErrs)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	c.Logger.Info().Str("slug", profile.Slug).Msg("profile updated")

	res := c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Your profile was saved.")
	return res
}

// slugFieldErrors reports a slug failure from forumdata against the form field
// the slug came from. ok is false for any other error.
func slugFieldErrors(err error, field string, takenMsg string) (errs forms.FieldErrors, ok bool) {
	switch {
	case errors.Is(err, forumdata.ErrSlugTaken):
		errs.Add(field, takenMsg)
	case errors.Is(err, forumdata.ErrEmptySlug):
		errs.Add(field, "This must contain at least one letter or number.")
	default:
		return nil, false
	}
	return errs, true
}
