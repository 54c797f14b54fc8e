package website

import (
	"net/http"
	"strings"
)

func FourOhFour(c *RequestContext) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusNotFound

	if c.Req.Header["Accept"] == nil || strings.Contains(c.Req.Header["Accept"][0], "text/html") {
		res.MustWriteTemplate("404.html", getBaseData(c, "Page not found"), c.Perf)
	} else {
		res.Write([]byte("Not Found"))
	}
	return res
}

// catchAll answers any request no other route claimed. A GET that is only
// missing its trailing slash is redirected to the slashed path.
func catchAll(c *RequestContext) ResponseData {
	isGet := c.Req.Method == http.MethodGet || c.Req.Method == http.MethodHead
	if isGet && c.Router != nil && c.Router.wouldMatchWithSlash(c.Req.Method, c.Req.URL.EscapedPath()) {
		dest := c.Req.URL.EscapedPath() + "/"
		if c.Req.URL.RawQuery != "" {
			dest += "?" + c.Req.URL.RawQuery
		}
		return c.Redirect(dest, http.StatusMovedPermanently)
	}
	return FourOhFour(c)
}
