package httpserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestRoundTrip(t *testing.T) {
	raw := "POST /sentence_measure/?debug=1&debug=2 HTTP/1.1\r\n" +
		"Host: localhost:8000\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 29\r\n" +
		"Cookie: session=abc.def; theme=dark\r\n" +
		"\r\n" +
		`{"text_id":"readly_2775ecb6"}`

	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/sentence_measure/", req.Path)
	assert.Equal(t, "1", req.QueryParams["debug"])
	assert.Equal(t, "application/json", req.Headers["content-type"])
	assert.Equal(t, "abc.def", req.Cookies["session"])
	assert.Equal(t, "dark", req.Cookies["theme"])
	assert.Equal(t, `{"text_id":"readly_2775ecb6"}`, string(req.Body))
}

func TestParseRequestNoBodyNoContentLength(t *testing.T) {
	raw := "GET /naked HTTP/1.1\r\nHost: localhost:8000\r\n\r\n"
	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, req.Body)
	assert.Equal(t, "/naked", req.Path)
}

func TestParseRequestShortBodyUsesWhatArrived(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: localhost\r\nContent-Length: 100\r\n\r\nshort"
	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "short", string(req.Body))
}

func TestParseRequestMalformedCookieSegmentSkipped(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: localhost\r\nCookie: noequals; session=ok\r\n\r\n"
	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "ok", req.Cookies["session"])
	assert.Len(t, req.Cookies, 1)
}

func TestParseRequestDuplicateHeaderKeepsLast(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: localhost\r\nX-Foo: first\r\nX-Foo: second\r\n\r\n"
	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "second", req.Headers["x-foo"])
}

func TestJSONBodyParseFailureYieldsEmptyMapping(t *testing.T) {
	req := &Request{Body: []byte("not json")}
	assert.Empty(t, req.JSON())
}

func TestQueryParamsCollapseToFirstValue(t *testing.T) {
	raw := "GET /search?q=one&q=two HTTP/1.1\r\nHost: localhost\r\n\r\n"
	req, err := ParseRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "one", req.QueryParams["q"])
}

func TestParseRequestRejectsOversizedContentLength(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: localhost\r\nContent-Length: 2000000000\r\n\r\n"
	_, err := ParseRequest(strings.NewReader(raw))
	require.Error(t, err)
}
