package forumurl

import (
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUrl(t *testing.T) {
	old := baseUrl
	defer SetGlobalBaseUrl(old)
	SetGlobalBaseUrl("http://forums.test/")

	t.Run("no query", func(t *testing.T) {
		assert.Equal(t, "http://forums.test/test/foo", Url("/test/foo", nil))
	})
	t.Run("yes query", func(t *testing.T) {
		result := Url("/test/foo", []Q{{"bar", "baz"}, {"zig??", "zig & zag!!"}})
		assert.Equal(t, "http://forums.test/test/foo?bar=baz&zig%3F%3F=zig+%26+zag%21%21", result)
	})
}

func TestHomepage(t *testing.T) {
	AssertRegexMatch(t, BuildHomepage(), RegexHomepage, nil)
}

func TestTopicPosts(t *testing.T) {
	AssertRegexMatch(t, BuildTopicPosts("general-chat", 1), RegexTopicPosts, map[string]string{"slug": "general-chat"})
	AssertRegexMatch(t, BuildTopicPosts("general-chat", 3), RegexTopicPosts, map[string]string{"slug": "general-chat"})
	assert.NotContains(t, BuildTopicPosts("general-chat", 1), "page=")
	assert.Contains(t, BuildTopicPosts("general-chat", 3), "?page=3")
	assert.Panics(t, func() { BuildTopicPosts("general-chat", 0) })
	assert.Panics(t, func() { BuildTopicPosts("", 1) })
}

func TestPostDetail(t *testing.T) {
	AssertRegexMatch(t, BuildPostDetail("hello-world"), RegexPostDetail, map[string]string{"slug": "hello-world"})
	AssertRegexMatch(t, BuildComment("hello-world", 12), RegexPostDetail, map[string]string{"slug": "hello-world"})
	assert.Contains(t, BuildComment("hello-world", 12), "#comment-12")
	assert.Nil(t, RegexPostDetail.FindStringSubmatch("/detail/a/b/"))
}

func TestForms(t *testing.T) {
	AssertRegexMatch(t, BuildCreatePost(), RegexCreatePost, nil)
	AssertRegexMatch(t, BuildLatestPosts(), RegexLatestPosts, nil)
	AssertRegexMatch(t, BuildSearch(), RegexSearch, nil)
	AssertRegexMatch(t, BuildSearchResults("go", "titles"), RegexSearch, nil)
	AssertRegexMatch(t, BuildSignup(), RegexSignup, nil)
	AssertRegexMatch(t, BuildSignin(), RegexSignin, nil)
	AssertRegexMatch(t, BuildSigninWithRedirect("/create_post"), RegexSignin, nil)
	AssertRegexMatch(t, BuildUpdateProfile(), RegexUpdateProfile, nil)
	AssertRegexMatch(t, BuildLogout(), RegexLogout, nil)
}

func TestSearchResults(t *testing.T) {
	parsed, err := url.Parse(BuildSearchResults("a&b", "descriptions"))
	assert.Nil(t, err)
	assert.Equal(t, "1", parsed.Query().Get("search"))
	assert.Equal(t, "a&b", parsed.Query().Get("q"))
	assert.Equal(t, "descriptions", parsed.Query().Get("search-type"))
}

func TestPerfmon(t *testing.T) {
	AssertRegexMatch(t, BuildPerfmon(), RegexPerfmon, nil)
}

func TestPublic(t *testing.T) {
	AssertRegexMatch(t, BuildPublic("test"), RegexPublic, nil)
	AssertRegexMatch(t, BuildPublic("/test"), RegexPublic, nil)
	AssertRegexMatch(t, BuildPublic("/test/"), RegexPublic, nil)
	assert.Panics(t, func() { BuildPublic("") })
	assert.Panics(t, func() { BuildPublic("/") })
	assert.Panics(t, func() { BuildPublic("/thing//image.png") })
	assert.Panics(t, func() { BuildPublic("/thing/ /image.png") })
}

func TestIsLocalRedirect(t *testing.T) {
	assert.True(t, IsLocalRedirect("/create_post"))
	assert.True(t, IsLocalRedirect("/posts/general/?page=2"))
	assert.False(t, IsLocalRedirect(""))
	assert.False(t, IsLocalRedirect("https://evil.example"))
	assert.False(t, IsLocalRedirect("//evil.example"))
	assert.False(t, IsLocalRedirect(`/\evil.example`))
}

func AssertRegexMatch(t *testing.T, fullUrl string, regex *regexp.Regexp, paramsToVerify map[string]string) {
	parsed, err := url.Parse(fullUrl)
	ok := assert.Nilf(t, err, "Full url could not be parsed: %s", fullUrl)
	if !ok {
		return
	}

	requestPath := parsed.Path
	if len(requestPath) == 0 {
		requestPath = "/"
	}
	match := regex.FindStringSubmatch(requestPath)
	assert.NotNilf(t, match, "Url did not match regex: [%s] vs [%s]", requestPath, regex.String())

	if paramsToVerify != nil {
		subexpNames := regex.SubexpNames()
		for i, matchedValue := range match {
			paramName := subexpNames[i]
			expectedValue, ok := paramsToVerify[paramName]
			if ok {
				assert.Equalf(t, expectedValue, matchedValue, "Param mismatch for [%s]", paramName)
				delete(paramsToVerify, paramName)
			}
		}
		if len(paramsToVerify) > 0 {
			unmatchedParams := make([]string, 0, len(paramsToVerify))
			for paramName := range paramsToVerify {
				unmatchedParams = append(unmatchedParams, paramName)
			}
			assert.Fail(t, "Expected match groups not found", unmatchedParams)
		}
	}
}
