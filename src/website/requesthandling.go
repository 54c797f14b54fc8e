package website

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"git.hoosierptk.dev/forums/forums/src/forumurl"
	"git.hoosierptk.dev/forums/forums/src/logging"
	"git.hoosierptk.dev/forums/forums/src/models"
	"git.hoosierptk.dev/forums/forums/src/perf"
	"git.hoosierptk.dev/forums/forums/src/templates"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Router struct {
	Routes []Route
}

// A Route is one method and one anchored path pattern. Named groups in the
// pattern become PathParams.
type Route struct {
	Method  string // empty for any method
	Pattern *regexp.Regexp
	Handler Handler
}

func (r *Route) String() string {
	method := r.Method
	if method == "" {
		method = "*"
	}
	return fmt.Sprintf("%s %s", method, r.Pattern)
}

type RouteBuilder struct {
	Router      *Router
	Middlewares []Middleware
}

type Handler func(c *RequestContext) ResponseData
type Middleware func(h Handler) Handler

func applyMiddlewares(h Handler, ms []Middleware) Handler {
	result := h
	for i := len(ms) - 1; i >= 0; i-- {
		result = ms[i](result)
	}
	return result
}

func (rb *RouteBuilder) Handle(methods []string, pattern *regexp.Regexp, h Handler) {
	if !strings.HasPrefix(pattern.String(), "^") {
		panic("route patterns must begin with '^'")
	}

	h = applyMiddlewares(h, rb.Middlewares)
	for _, method := range methods {
		rb.Router.Routes = append(rb.Router.Routes, Route{
			Method:  method,
			Pattern: pattern,
			Handler: h,
		})
	}
}

func (rb *RouteBuilder) AnyMethod(pattern *regexp.Regexp, h Handler) {
	rb.Handle([]string{""}, pattern, h)
}

func (rb *RouteBuilder) GET(pattern *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodGet}, pattern, h)
}

func (rb *RouteBuilder) POST(pattern *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodPost}, pattern, h)
}

func (rb *RouteBuilder) WithMiddleware(ms ...Middleware) RouteBuilder {
	newRb := *rb
	newRb.Middlewares = append(append([]Middleware{}, rb.Middlewares...), ms...)
	return newRb
}

// match reports whether the route handles the escaped path, and its path
// params if so. Trailing slashes are significant.
func (r *Route) match(escapedPath string) (map[string]string, bool) {
	match := r.Pattern.FindStringSubmatch(escapedPath)
	if match == nil {
		return nil, false
	}

	params := map[string]string{}
	for i, name := range r.Pattern.SubexpNames() {
		if name == "" {
			continue
		}
		value := match[i]
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		params[name] = value
	}
	return params, true
}

func (r *Router) findRoute(method, escapedPath string) (*Route, map[string]string) {
	if method == http.MethodHead {
		method = http.MethodGet // HEADs route like GETs
	}
	for i := range r.Routes {
		route := &r.Routes[i]
		if route.Method != "" && route.Method != method {
			continue
		}
		if params, ok := route.match(escapedPath); ok {
			return route, params
		}
	}
	return nil, nil
}

func (r *Router) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	escapedPath := req.URL.EscapedPath()
	if escapedPath == "" {
		escapedPath = "/"
	}

	route, params := r.findRoute(req.Method, escapedPath)
	if route == nil {
		panic(fmt.Sprintf("no route matched %s; register a catch-all route", req.URL))
	}

	c := &RequestContext{
		Route:      route.String(),
		Logger:     logging.GlobalLogger(),
		Req:        req,
		Res:        rw,
		PathParams: params,
		Router:     r,

		ctx: req.Context(),
	}
	doRequest(rw, c, route.Handler)
}

// wouldMatchWithSlash is true when a non-catch-all route of the same method
// matches urlPath plus a trailing slash.
func (r *Router) wouldMatchWithSlash(method, urlPath string) bool {
	if strings.HasSuffix(urlPath, "/") {
		return false
	}
	route, _ := r.findRoute(method, urlPath+"/")
	return route != nil && route.Method != ""
}

type RequestContext struct {
	Route      string
	Logger     *zerolog.Logger
	Req        *http.Request
	PathParams map[string]string
	Router     *Router

	// NOTE: This is the http package's internal response object, not just a ResponseWriter.
	Res http.ResponseWriter

	Conn           *pgxpool.Pool
	CurrentUser    *models.User
	CurrentSession *models.Session

	// The profile is loaded lazily; see (*RequestContext).CurrentProfile.
	currentProfile *models.Profile

	Perf          *perf.RequestPerf
	PerfCollector *perf.PerfCollector

	ctx context.Context
}

// Our RequestContext is a context.Context

var _ context.Context = &RequestContext{}

func (c *RequestContext) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

func (c *RequestContext) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *RequestContext) Err() error {
	return c.ctx.Err()
}

func (c *RequestContext) Value(key any) any {
	switch key {
	case perf.PerfContextKey:
		return c.Perf
	default:
		return c.ctx.Value(key)
	}
}

// Plus it does many other things specific to us

func (c *RequestContext) URL() *url.URL {
	return c.Req.URL
}

// FullUrl is the absolute URL of the request as the client saw it, honoring a
// proxy's X-Forwarded-Proto.
func (c *RequestContext) FullUrl() string {
	scheme := "http"
	if proto := c.Req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if c.Req.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Req.Host + c.Req.URL.RequestURI()
}

// PathAndQuery is the part of the URL that's safe to redirect back to.
func (c *RequestContext) PathAndQuery() string {
	return c.Req.URL.RequestURI()
}

func (c *RequestContext) GetFormValues() (url.Values, error) {
	err := c.Req.ParseForm()
	if err != nil {
		return nil, err
	}

	return c.Req.PostForm, nil
}

// The logic of this function is copy-pasted from the Go standard library.
// https://golang.org/pkg/net/http/#Redirect
func (c *RequestContext) Redirect(dest string, code int) ResponseData {
	var res ResponseData

	if u, err := url.Parse(dest); err == nil {
		// If url was relative, make its path absolute by
		// combining with request path.
		// See RFC 7231, section 7.1.2
		if u.Scheme == "" && u.Host == "" {
			oldpath := c.Req.URL.Path
			if oldpath == "" { // should not happen, but avoid a crash if it does
				oldpath = "/"
			}

			// no leading http://server
			if dest == "" || dest[0] != '/' {
				// make relative path absolute
				olddir, _ := path.Split(oldpath)
				dest = olddir + dest
			}

			var query string
			if i := strings.IndexAny(dest, "?#"); i != -1 {
				dest, query = dest[:i], dest[i:]
			}

			// clean up but preserve trailing slash
			trailing := strings.HasSuffix(dest, "/")
			dest = path.Clean(dest)
			if trailing && !strings.HasSuffix(dest, "/") {
				dest += "/"
			}
			dest += query
		}
	}

	// Escape stuff
	destUrl, err := url.Parse(dest)
	if err != nil {
		c.Logger.Warn().Err(err).Str("dest", dest).Msg("Failed to parse redirect URI")
		return c.Redirect(forumurl.BuildHomepage(), http.StatusSeeOther)
	}
	dest = destUrl.String()

	res.Header().Set("Location", dest)
	if c.Req.Method == "GET" || c.Req.Method == "HEAD" {
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	res.StatusCode = code

	// Shouldn't send the body for POST or HEAD; that leaves GET.
	if c.Req.Method == "GET" {
		res.Write([]byte("<a href=\"" + html.EscapeString(dest) + "\">" + http.StatusText(code) + "</a>.\n"))
	}

	return res
}

func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	defer func() {
		if r := recover(); r != nil {
			logContextErrors(c, errs...)
			panic(r)
		}
	}()

	res := ResponseData{
		StatusCode: status,
		Errors:     errs,
	}
	res.MustWriteTemplate("error.html", getBaseData(c, "Error"), c.Perf)
	return res
}

// RejectRequest is for malformed requests that no form on the site would
// send, like a reply to a comment id that doesn't parse.
func (c *RequestContext) RejectRequest(reason string) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusBadRequest
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Write([]byte(reason))
	return res
}

type ResponseData struct {
	StatusCode    int
	Body          *bytes.Buffer
	Errors        []error
	FutureNotices []templates.Notice

	header http.Header
}

var _ http.ResponseWriter = &ResponseData{}

func (rd *ResponseData) Header() http.Header {
	if rd.header == nil {
		rd.header = make(http.Header)
	}

	return rd.header
}

func (rd *ResponseData) Write(p []byte) (n int, err error) {
	if rd.Body == nil {
		rd.Body = new(bytes.Buffer)
	}

	return rd.Body.Write(p)
}

func (rd *ResponseData) WriteHeader(status int) {
	rd.StatusCode = status
}

func (rd *ResponseData) SetCookie(cookie *http.Cookie) {
	rd.Header().Add("Set-Cookie", cookie.String())
}

func (rd *ResponseData) AddFutureNotice(class string, content string) {
	rd.FutureNotices = append(rd.FutureNotices, templates.Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

func (rd *ResponseData) WriteTemplate(name string, data interface{}, rp *perf.RequestPerf) error {
	defer rp.StartBlock("TEMPLATE", name).End()
	return templates.GetTemplate(name).Execute(rd, data)
}

func (rd *ResponseData) MustWriteTemplate(name string, data interface{}, rp *perf.RequestPerf) {
	err := rd.WriteTemplate(name, data, rp)
	if err != nil {
		panic(err)
	}
}

func (rd *ResponseData) WriteJson(data any, rp *perf.RequestPerf) {
	defer rp.StartBlock("JSON", "Encode response").End()
	dataJson, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	rd.Header().Set("Content-Type", "application/json")
	rd.Write(dataJson)
}

func doRequest(rw http.ResponseWriter, c *RequestContext, h Handler) {
	defer func() {
		/*
			This panic recovery is the last resort. If you want to render
			an error page or something, make it a request wrapper.
		*/
		if recovered := recover(); recovered != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			logging.LogPanicValue(c.Logger, recovered, "request panicked and was not handled")
			rw.Write([]byte("There was a problem handling your request."))
		}
	}()

	// Run the chosen handler
	res := h(c)

	if res.StatusCode == 0 {
		res.StatusCode = http.StatusOK
	}

	// Set Content-Type and Content-Length if necessary. This behavior would in
	// some cases be handled by http.ResponseWriter.Write, but we extract it so
	// that HEAD requests always return both headers.

	var preamble []byte // Any bytes we read to determine Content-Type
	if res.Body != nil {
		bodyLen := res.Body.Len()

		if res.Header().Get("Content-Type") == "" {
			preamble = res.Body.Next(512)
			rw.Header().Set("Content-Type", http.DetectContentType(preamble))
		}
		if res.Header().Get("Content-Length") == "" {
			rw.Header().Set("Content-Length", strconv.Itoa(bodyLen))
		}
	}

	// Ensure we send no body for HEAD requests
	if c.Req.Method == http.MethodHead {
		res.Body = nil
	}

	// Send remaining response headers
	for name, vals := range res.Header() {
		for _, val := range vals {
			rw.Header().Add(name, val)
		}
	}
	rw.WriteHeader(res.StatusCode)

	// Send response body
	if res.Body != nil {
		// Write preamble, if any
		_, err := rw.Write(preamble)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) {
				// Can be triggered when other side hangs up
				logging.Debug().Msg("Broken pipe")
			} else {
				logging.Error().Err(err).Msg("Failed to write response preamble")
			}
		}

		// Write remainder of body
		_, err = io.Copy(rw, res.Body)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) {
				logging.Debug().Msg("Broken pipe")
			} else {
				logging.Error().Err(err).Msg("copied res.Body")
			}
		}
	}
}
