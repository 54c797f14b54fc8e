package website

import (
	"errors"

	"git.hoosierptk.dev/forums/forums/src/assets"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/templates"
)

func getBaseData(c *RequestContext, title string) templates.BaseData {
	var templateUser *templates.User
	var templateSession *templates.Session
	if c.CurrentUser != nil {
		u, err := currentUserToTemplate(c)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("failed to load profile for header")
			u = templates.ProfileToTemplate(&models.Profile{Role: models.DefaultRole}, nil, c.CurrentUser.Username)
		}
		templateUser = &u
	}
	if c.CurrentSession != nil {
		templateSession = &templates.Session{CSRFToken: c.CurrentSession.CSRFToken}
	}

	return templates.BaseData{
		Title:      title,
		CurrentUrl: c.FullUrl(),
		Notices:    getNoticesFromCookie(c),

		User:    templateUser,
		Session: templateSession,

		Header: templates.Header{
			HomepageUrl:      forumurl.BuildHomepage(),
			LatestPostsUrl:   forumurl.BuildLatestPosts(),
			CreatePostUrl:    forumurl.BuildCreatePost(),
			SearchUrl:        forumurl.BuildSearch(),
			SignupUrl:        forumurl.BuildSignup(),
			SigninUrl:        forumurl.BuildSignin(),
			UpdateProfileUrl: forumurl.BuildUpdateProfile(),
			LogoutUrl:        forumurl.BuildLogout(),
		},
	}
}

// CurrentProfile is the signed-in user's profile, or nil if they have not
// made one yet. It is fetched at most once per request.
func (c *RequestContext) CurrentProfile() (*models.Profile, error) {
	if c.CurrentUser == nil {
		return nil, nil
	}
	if c.currentProfile != nil {
		return c.currentProfile, nil
	}

	profile, err := forumdata.FetchProfileByUserID(c, c.Conn, c.CurrentUser.ID)
	if err != nil {
		if errors.Is(err, forumdata.ErrNoProfile) {
			return nil, nil
		}
		return nil, err
	}
	c.currentProfile = profile
	return profile, nil
}

// ensureCurrentProfile is for handlers that create content; anyone posting
// needs a profile to hang points on.
func (c *RequestContext) ensureCurrentProfile() (*models.Profile, error) {
	if c.CurrentUser == nil {
		return nil, oops.New(nil, "no user to make a profile for")
	}
	profile, err := forumdata.EnsureProfile(c, c.Conn, c.CurrentUser)
	if err != nil {
		return nil, err
	}
	c.currentProfile = profile
	return profile, nil
}

func currentUserToTemplate(c *RequestContext) (templates.User, error) {
	profile, err := c.CurrentProfile()
	if err != nil {
		return templates.User{}, err
	}
	if profile == nil {
		return templates.ProfileToTemplate(&models.Profile{Role: models.DefaultRole}, nil, c.CurrentUser.Username), nil
	}

	var avatar *models.Asset
	if profile.AvatarAssetID != nil {
		avatar, err = assets.FetchAsset(c, c.Conn, *profile.AvatarAssetID)
		if err != nil {
			return templates.User{}, oops.New(err, "failed to fetch avatar")
		}
	}
	return templates.ProfileToTemplate(profile, avatar, c.CurrentUser.Username), nil
}
