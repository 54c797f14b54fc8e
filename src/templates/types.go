package templates

import (
	"html/template"
	"time"

	"github.com/teacat/noire"
)

type BaseData struct {
	Title      string
	CurrentUrl string
	Notices    []Notice

	User    *User // nil when logged out
	Session *Session

	Header Header

	// Echoed back into the search box in the header.
	SearchQuery string
	SearchMode  string
}

func (bd *BaseData) AddImmediateNotice(class, content string) {
	bd.Notices = append(bd.Notices, Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

type Header struct {
	HomepageUrl      string
	LatestPostsUrl   string
	CreatePostUrl    string
	SearchUrl        string
	SignupUrl        string
	SigninUrl        string
	UpdateProfileUrl string
	LogoutUrl        string
}

type Notice struct {
	Content template.HTML
	Class   string
}

type Session struct {
	CSRFToken string
}

type User struct {
	Username string
	Fullname string
	Slug     string
	Bio      template.HTML
	Role     string
	Points   int

	// Empty when the user has no avatar; templates fall back to an initial.
	AvatarUrl string
	Initial   string
}

type Forum struct {
	ID     int
	Title  string
	Color  noire.Color
	Topics []Topic
}

type Topic struct {
	Title       string
	Slug        string
	Description string
	Icon        string
	Url         string

	NumPosts int
	LastPost *Post
}

type Post struct {
	Title string
	Slug  string
	Url   string

	// Content is only filled in on the detail page. Listings use Preview.
	Content template.HTML
	Preview template.HTML

	Date        time.Time
	State       string
	Icon        string
	Closed      bool
	Hits        int
	NumComments int

	Author *User
	Topic  *Topic
	Tags   []Tag
}

type Comment struct {
	ID      int
	Url     string
	Content template.HTML
	Date    time.Time
	Author  *User
	Replies []Reply
}

type Reply struct {
	Content template.HTML
	Date    time.Time
	Author  *User
}

type Tag struct {
	Text string
}

type Pagination struct {
	Current int
	Total   int

	FirstUrl    string
	LastUrl     string
	PreviousUrl string
	NextUrl     string
}

// Option is an entry in a <select>.
type Option struct {
	Value    string
	Label    string
	Selected bool
}
