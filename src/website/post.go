package website

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forms"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/parsing"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/samber/lo"
)

type PostDetailTemplateData struct {
	templates.BaseData

	Post           templates.Post
	Comments       []templates.Comment
	AuthorNumPosts int
	SubmitUrl      string

	// Set when a submitted comment or reply has to be shown again.
	CommentText    string
	CommentErrors  forms.FieldErrors
	ReplyCommentID int
	ReplyText      string
	ReplyErrors    forms.FieldErrors
}

func PostDetail(c *RequestContext) ResponseData {
	post, err := forumdata.FetchPostBySlug(c, c.Conn, c.PathParams["slug"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch post"))
	}

	post.Post.State, post.Post.Icon, err = forumdata.RefreshPostStatus(c, c.Conn, post.Post.ID)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if c.CurrentSession != nil {
		counted, err := forumdata.RecordHit(c, c.Conn, c.CurrentSession.ID, post.Post.ID)
		if err != nil {
			c.Logger.Warn().Err(err).Int("post_id", post.Post.ID).Msg("failed to record post hit")
		} else if counted {
			post.Post.Hits++
		}
	}

	data, err := postDetailData(c, post)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.MustWriteTemplate("post_detail.html", data, c.Perf)
	return res
}

func postDetailData(c *RequestContext, post *forumdata.PostAndStuff) (PostDetailTemplateData, error) {
	comments, err := forumdata.FetchCommentsWithReplies(c, c.Conn, post.Post.ID)
	if err != nil {
		return PostDetailTemplateData{}, err
	}
	tags, err := forumdata.FetchPostTags(c, c.Conn, post.Post.ID)
	if err != nil {
		return PostDetailTemplateData{}, err
	}
	authorNumPosts, err := forumdata.ProfilePostCount(c, c.Conn, post.Author.ID)
	if err != nil {
		return PostDetailTemplateData{}, err
	}

	templatePost := postAndStuffToTemplate(post)
	templatePost.Content = parsing.RenderContent(post.Post.Content)
	templatePost.Tags = templates.TagsToTemplate(tags)

	templateComments := lo.Map(comments, func(cm *forumdata.CommentAndStuff, _ int) templates.Comment {
		author := templates.ProfileToTemplate(&cm.Author, cm.AuthorAvatar, "")
		comment := templates.CommentToTemplate(post.Post.Slug, &cm.Comment, &author)
		comment.Replies = lo.Map(cm.Replies, func(r forumdata.ReplyAndStuff, _ int) templates.Reply {
			replyAuthor := templates.ProfileToTemplate(&r.Author, r.AuthorAvatar, "")
			return templates.ReplyToTemplate(&r.Reply, &replyAuthor)
		})
		return comment
	})

	return PostDetailTemplateData{
		BaseData:       getBaseData(c, post.Post.Title),
		Post:           templatePost,
		Comments:       templateComments,
		AuthorNumPosts: authorNumPosts,
		SubmitUrl:      forumurl.BuildPostDetail(post.Post.Slug),
	}, nil
}

/*
PostDetailSubmit handles the two forms on a post page. The comment form sends
comment-form and comment; each reply form sends reply-form, reply, and the
comment-id it answers. Either way the user goes back where they came from.
*/
func PostDetailSubmit(c *RequestContext) ResponseData {
	post, err := forumdata.FetchPostBySlug(c, c.Conn, c.PathParams["slug"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch post"))
	}
	values, err := c.GetFormValues()
	if err != nil {
		return c.RejectRequest("request must contain form data")
	}

	showErrors := func(fill func(d *PostDetailTemplateData)) ResponseData {
		data, err := postDetailData(c, post)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		fill(&data)

		var res ResponseData
		res.MustWriteTemplate("post_detail.html", data, c.Perf)
		return res
	}

	switch {
	case values.Has("comment-form"):
		form := forms.NewCommentForm(values)
		if errs := forms.Validate(form); errs != nil {
			return showErrors(func(d *PostDetailTemplateData) {
				d.CommentText = form.Content
				d.CommentErrors = errs
			})
		}

		profile, err := c.ensureCurrentProfile()
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		comment, created, err := forumdata.GetOrCreateComment(c, c.Conn, post.Post.ID, profile, form.Content)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		c.Logger.Info().Int("comment_id", comment.ID).Bool("created", created).Msg("comment submitted")
	case values.Has("reply-form"):
		form, ok := forms.NewReplyForm(values)
		if !ok {
			return c.RejectRequest("comment-id must be a number")
		}
		if _, err := forumdata.FetchComment(c, c.Conn, post.Post.ID, form.CommentID); err != nil {
			if errors.Is(err, db.NotFound) {
				return c.RejectRequest("no such comment on this post")
			}
			return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch comment"))
		}
		if errs := forms.Validate(form); errs != nil {
			return showErrors(func(d *PostDetailTemplateData) {
				d.ReplyCommentID = form.CommentID
				d.ReplyText = form.Content
				d.ReplyErrors = errs
			})
		}

		profile, err := c.ensureCurrentProfile()
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		reply, created, err := forumdata.GetOrCreateReply(c, c.Conn, form.CommentID, profile, form.Content)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		c.Logger.Info().Int("reply_id", reply.ID).Bool("created", created).Msg("reply submitted")
	default:
		return c.RejectRequest("unrecognized form")
	}

	dest := localReferer(c)
	if dest == "" {
		dest = forumurl.BuildPostDetail(post.Post.Slug)
	}
	return c.Redirect(dest, http.StatusSeeOther)
}

// localReferer is the path of the Referer header, if it points at this site.
func localReferer(c *RequestContext) string {
	referer, err := url.Parse(c.Req.Referer())
	if err != nil || referer.Path == "" {
		return ""
	}
	if referer.Host != "" && referer.Host != c.Req.Host {
		return ""
	}
	dest := referer.RequestURI()
	if !forumurl.IsLocalRedirect(dest) {
		return ""
	}
	return dest
}

type CreatePostTemplateData struct {
	templates.BaseData

	SubmitUrl    string
	Form         forms.PostForm
	TopicOptions []templates.Option
	Errors       forms.FieldErrors
}

// topicOptions lists every topic for the create form's select, labeled with
// the forum it belongs to.
func topicOptions(c *RequestContext, selected int) ([]templates.Option, error) {
	forums, err := forumdata.FetchForums(c, c.Conn)
	if err != nil {
		return nil, err
	}
	topics, err := forumdata.FetchTopics(c, c.Conn)
	if err != nil {
		return nil, err
	}

	var options []templates.Option
	for _, f := range forumdata.GroupTopics(forums, topics) {
		for _, t := range f.Topics {
			options = append(options, templates.Option{
				Value:    strconv.Itoa(t.Topic.ID),
				Label:    f.Forum.Title + " / " + t.Topic.Title,
				Selected: t.Topic.ID == selected,
			})
		}
	}
	return options, nil
}

func CreatePost(c *RequestContext) ResponseData {
	options, err := topicOptions(c, 0)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.MustWriteTemplate("create_post.html", CreatePostTemplateData{
		BaseData:     getBaseData(c, "New post"),
		SubmitUrl:    forumurl.BuildCreatePost(),
		TopicOptions: options,
	}, c.Perf)
	return res
}

func CreatePostSubmit(c *RequestContext) ResponseData {
	values, err := c.GetFormValues()
	if err != nil {
		return c.RejectRequest("request must contain form data")
	}

	form := forms.NewPostForm(values)
	options, err := topicOptions(c, form.TopicID)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	showErrors := func(errs forms.FieldErrors) ResponseData {
		var res ResponseData
		res.MustWriteTemplate("create_post.html", CreatePostTemplateData{
			BaseData:     getBaseData(c, "New post"),
			SubmitUrl:    forumurl.BuildCreatePost(),
			Form:         form,
			TopicOptions: options,
			Errors:       errs,
		}, c.Perf)
		return res
	}

	errs := forms.Validate(form)
	if !errs.Has("topic") {
		_, known := lo.Find(options, func(o templates.Option) bool { return o.Selected })
		if !known {
			errs.Add("topic", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if errs != nil {
		return showErrors(errs)
	}

	profile, err := c.ensureCurrentProfile()
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	post, err := forumdata.CreatePost(c, c.Conn, profile, forumdata.PostInput{
		Title:   form.Title,
		Content: form.Content,
		TopicID: form.TopicID,
		Tags:    form.TagList(),
	})
	if err != nil {
		if slugErrs, ok := slugFieldErrors(err, "title", "A post with a title like this already exists."); ok {
			return showErrors(slugErrs)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	c.Logger.Info().Str("slug", post.Slug).Int("profile_id", profile.ID).Msg("post created")

	res := c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Your post \""+post.Title+"\" was created.")
	return res
}
