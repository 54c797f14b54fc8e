package templates

import (
	"strings"
	"unicode/utf8"

	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/parsing"
	"github.com/samber/lo"
	"github.com/teacat/noire"
)

func ProfileToTemplate(p *models.Profile, avatar *models.Asset, username string) User {
	name := p.Fullname
	if name == "" {
		name = username
	}
	if name == "" {
		name = p.Slug
	}
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(strings.ToUpper(name)); r != utf8.RuneError {
		initial = string(r)
	}

	var avatarUrl string
	if avatar != nil {
		avatarUrl = forumurl.BuildS3Asset(avatar.S3Key)
	}

	return User{
		Username:  username,
		Fullname:  name,
		Slug:      p.Slug,
		Bio:       parsing.RenderContent(p.Bio),
		Role:      p.Role,
		Points:    p.Points,
		AvatarUrl: avatarUrl,
		Initial:   initial,
	}
}

// ForumColor is the accent color for a forum's header. Hues are spread
// around the wheel so neighboring forums look different.
func ForumColor(forumID int) noire.Color {
	hue := float64((forumID * 137) % 360)
	return noire.NewHSLA(hue, 55, 38, 1)
}

func ForumToTemplate(f *models.Forum) Forum {
	return Forum{
		ID:    f.ID,
		Title: f.Title,
		Color: ForumColor(f.ID),
	}
}

func TopicToTemplate(t *models.Topic) Topic {
	return Topic{
		Title:       t.Title,
		Slug:        t.Slug,
		Description: t.Description,
		Icon:        t.Icon,
		Url:         forumurl.BuildTopicPosts(t.Slug, 1),
	}
}

// PostToTemplate fills in everything a listing needs. The detail page adds
// Content afterwards.
func PostToTemplate(p *models.Post, numComments int) Post {
	return Post{
		Title:       p.Title,
		Slug:        p.Slug,
		Url:         forumurl.BuildPostDetail(p.Slug),
		Preview:     parsing.LinkifyPreview(parsing.Preview(p.Content, forumdata.PreviewMaxChars)),
		Date:        p.Date,
		State:       string(p.State),
		Icon:        p.Icon,
		Closed:      p.Closed,
		Hits:        p.Hits,
		NumComments: numComments,
	}
}

func TagsToTemplate(tags []*models.Tag) []Tag {
	return lo.Map(tags, func(t *models.Tag, _ int) Tag {
		return Tag{Text: t.Text}
	})
}

func CommentToTemplate(postSlug string, c *models.Comment, author *User) Comment {
	return Comment{
		ID:      c.ID,
		Url:     forumurl.BuildComment(postSlug, c.ID),
		Content: parsing.RenderContent(c.Content),
		Date:    c.Date,
		Author:  author,
	}
}

func ReplyToTemplate(r *models.Reply, author *User) Reply {
	return Reply{
		Content: parsing.RenderContent(r.Content),
		Date:    r.Date,
		Author:  author,
	}
}
