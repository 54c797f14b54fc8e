/*
Package forumurl builds every URL the site links to, and holds the regexes
the router matches them with. Each route has a Regex/Build pair that must
agree, which the tests check.
*/
package forumurl

import (
	"net/url"
	"strings"

	"git.hoosierptk.dev/forums/forums/src/config"
)

const StaticPath = "/public"

var baseUrl = strings.TrimRight(config.Config.BaseUrl, "/")

func SetGlobalBaseUrl(base string) {
	baseUrl = strings.TrimRight(base, "/")
}

type Q struct {
	Name  string
	Value string
}

func Url(path string, query []Q) string {
	result := baseUrl + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}
