package website

import (
	"errors"
	"net/http"

	"git.hoosierptk.dev/forums/forums/src/db"
	"git.hoosierptk.dev/forums/forums/src/forumdata"
	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/oops"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"git.hoosierptk.dev/forums/forums/src/utils"
	"github.com/samber/lo"
)

type HomeTemplateData struct {
	templates.BaseData

	Forums    []templates.Forum
	NumPosts  int
	NumUsers  int
	NumTopics int
	LastPost  *templates.Post
}

func Home(c *RequestContext) ResponseData {
	stats, err := forumdata.FetchHomeStats(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch home stats"))
	}

	forums := lo.Map(stats.Forums, func(f forumdata.ForumAndTopics, _ int) templates.Forum {
		forum := templates.ForumToTemplate(&f.Forum)
		forum.Topics = lo.Map(f.Topics, func(t forumdata.TopicAndStats, _ int) templates.Topic {
			topic := templates.TopicToTemplate(&t.Topic)
			topic.NumPosts = t.NumPosts
			if t.LastPost != nil {
				lastPost := templates.PostToTemplate(t.LastPost, 0)
				topic.LastPost = &lastPost
			}
			return topic
		})
		return forum
	})

	var lastPost *templates.Post
	if stats.LastPost != nil {
		p := postAndStuffToTemplate(stats.LastPost)
		lastPost = &p
	}

	var res ResponseData
	res.MustWriteTemplate("home.html", HomeTemplateData{
		BaseData:  getBaseData(c, "Forums"),
		Forums:    forums,
		NumPosts:  stats.NumPosts,
		NumUsers:  stats.NumUsers,
		NumTopics: stats.NumTopics,
		LastPost:  lastPost,
	}, c.Perf)
	return res
}

type TopicPostsTemplateData struct {
	templates.BaseData

	Topic      templates.Topic
	Posts      []templates.Post
	Pagination templates.Pagination
}

func TopicPosts(c *RequestContext) ResponseData {
	slug := c.PathParams["slug"]
	topic, err := forumdata.FetchTopicBySlug(c, c.Conn, slug)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to fetch topic"))
	}

	numPosts, err := forumdata.CountTopicPosts(c, c.Conn, topic.ID)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	page, numPages := utils.ResolvePage(c.URL().Query().Get("page"), numPosts, forumdata.PostsPerPage)

	posts, err := forumdata.FetchTopicPosts(c, c.Conn, topic.ID, page)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	templateTopic := templates.TopicToTemplate(topic)
	templateTopic.NumPosts = numPosts

	var res ResponseData
	res.MustWriteTemplate("topic_posts.html", TopicPostsTemplateData{
		BaseData: getBaseData(c, topic.Title),
		Topic:    templateTopic,
		Posts:    postsToTemplate(posts),
		Pagination: buildPagination(page, numPages, func(p int) string {
			return forumurl.BuildTopicPosts(topic.Slug, p)
		}),
	}, c.Perf)
	return res
}

type LatestPostsTemplateData struct {
	templates.BaseData
	Posts []templates.Post
}

func LatestPosts(c *RequestContext) ResponseData {
	posts, err := forumdata.LatestPosts(c, c.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.MustWriteTemplate("latest_posts.html", LatestPostsTemplateData{
		BaseData: getBaseData(c, "Latest posts"),
		Posts:    postsToTemplate(posts),
	}, c.Perf)
	return res
}

type SearchTemplateData struct {
	templates.BaseData

	Searched   bool
	Query      string
	Mode       string
	NumResults int
	Posts      []templates.Post
}

func Search(c *RequestContext) ResponseData {
	query := c.URL().Query()
	q := query.Get("q")
	mode := forumdata.SearchTitles
	if forumdata.SearchMode(query.Get("search-type")) == forumdata.SearchDescriptions {
		mode = forumdata.SearchDescriptions
	}

	baseData := getBaseData(c, "Search")
	baseData.SearchQuery = q
	baseData.SearchMode = string(mode)

	data := SearchTemplateData{
		BaseData: baseData,
		Query:    q,
		Mode:     string(mode),
	}

	if query.Has("search") {
		posts, err := forumdata.SearchPosts(c, c.Conn, q, mode)
		if err != nil {
			return c.ErrorResponse(http.StatusInternalServerError, err)
		}
		data.Searched = true
		data.Posts = postsToTemplate(posts)
		data.NumResults = len(posts)
	}

	var res ResponseData
	res.MustWriteTemplate("search.html", data, c.Perf)
	return res
}

func postsToTemplate(posts []*forumdata.PostAndStuff) []templates.Post {
	return lo.Map(posts, func(p *forumdata.PostAndStuff, _ int) templates.Post {
		return postAndStuffToTemplate(p)
	})
}

// postAndStuffToTemplate is a listing entry, complete with author and topic.
func postAndStuffToTemplate(p *forumdata.PostAndStuff) templates.Post {
	post := templates.PostToTemplate(&p.Post, p.NumComments)
	author := templates.ProfileToTemplate(&p.Author, p.AuthorAvatar, "")
	topic := templates.TopicToTemplate(&p.Topic)
	post.Author = &author
	post.Topic = &topic
	return post
}
