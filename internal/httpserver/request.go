// Package httpserver implements the server core: the byte-level request
// reader, the request/response object model, the route registry, and the
// connection dispatcher.
package httpserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/raynardj/readly/internal/constants"
	"github.com/raynardj/readly/internal/errors"
	"github.com/raynardj/readly/internal/session"
)

const maxHeaderReadChunk = constants.HeaderReadChunk

var headerCaser = cases.Lower(language.Und)

// Request is the value produced once per connection by the request
// parser.
type Request struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     map[string]string
	Cookies     map[string]string
	Body        []byte
	Session     session.Values
	BaseURL     string
}

// JSON parses Body as a JSON object. A parse failure yields an empty
// mapping without raising an error.
func (r *Request) JSON() map[string]interface{} {
	out := map[string]interface{}{}
	if len(r.Body) == 0 {
		return out
	}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// ParseRequest reads one HTTP/1.1 message off conn: it frames the
// headers against CRLF-CRLF, then reads exactly Content-Length body
// bytes, or whatever arrives before EOF.
func ParseRequest(conn io.Reader) (*Request, error) {
	reader := bufio.NewReaderSize(conn, maxHeaderReadChunk)

	headerBlock, initialBody, err := readUntilHeadersEnd(reader)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeParse, "httpserver.ParseRequest", "reading header block", err)
	}

	req := &Request{
		QueryParams: map[string]string{},
		Headers:     map[string]string{},
		Cookies:     map[string]string{},
		Session:     session.Values{},
	}

	contentLength, err := parseHeaderBlock(req, headerBlock)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeParse, "httpserver.ParseRequest", "parsing request line/headers", err)
	}

	body := initialBody
	if contentLength > 0 {
		body = readBody(reader, initialBody, contentLength)
	}
	req.Body = body

	return req, nil
}

// readUntilHeadersEnd reads in maxHeaderReadChunk-sized chunks until the
// CRLF-CRLF boundary appears, then splits the accumulated bytes into the
// header block and whatever body bytes arrived in the same reads.
func readUntilHeadersEnd(reader *bufio.Reader) (headerBlock []byte, initialBody []byte, err error) {
	var acc []byte
	buf := make([]byte, maxHeaderReadChunk)

	for {
		if idx := indexHeadersEnd(acc); idx >= 0 {
			return acc[:idx], acc[idx+4:], nil
		}

		n, readErr := reader.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if idx := indexHeadersEnd(acc); idx >= 0 {
				return acc[:idx], acc[idx+4:], nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				// No CRLF-CRLF ever arrived: treat whatever we have as the
				// header block with no body. parseHeaderBlock reports a
				// parse failure if it holds no usable request line.
				return acc, nil, nil
			}
			return nil, nil, readErr
		}
	}
}

func indexHeadersEnd(b []byte) int {
	return indexOf(b, []byte("\r\n\r\n"))
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

// readBody reads until the body buffer has exactly contentLength bytes,
// tolerating a short read: if the connection is closed before
// contentLength bytes arrive, whatever was read is returned as-is.
func readBody(reader *bufio.Reader, initialBody []byte, contentLength int) []byte {
	body := make([]byte, 0, contentLength)
	body = append(body, initialBody...)
	if len(body) > contentLength {
		body = body[:contentLength]
	}

	for len(body) < contentLength {
		remaining := contentLength - len(body)
		chunk := make([]byte, minInt(remaining, maxHeaderReadChunk))
		n, err := reader.Read(chunk)
		if n > 0 {
			body = append(body, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return body
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// parseHeaderBlock splits the request line and header lines out of
// headerBlock, populating req, and returns the declared Content-Length
// (0 if absent).
func parseHeaderBlock(req *Request, headerBlock []byte) (int, error) {
	text := string(headerBlock)
	lines := strings.Split(text, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return 0, errors.New(errors.ErrorTypeParse, "parseHeaderBlock", "empty request line", nil)
	}

	if err := parseRequestLine(req, lines[0]); err != nil {
		return 0, err
	}

	contentLength := 0
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		name = headerCaser.String(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldValue(value) {
			continue
		}
		req.Headers[name] = value

		if name == "cookie" {
			parseCookies(req, value)
		}
		if name == "content-length" {
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				continue
			}
			if n > constants.MaxContentLength {
				return 0, errors.New(errors.ErrorTypeParse, "parseHeaderBlock",
					fmt.Sprintf("declared Content-Length %d exceeds the %d-byte limit", n, constants.MaxContentLength), nil)
			}
			contentLength = n
		}
	}

	return contentLength, nil
}

func parseRequestLine(req *Request, line string) error {
	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return errors.New(errors.ErrorTypeParse, "parseRequestLine", "malformed request line: "+line, nil)
	}

	req.Method = parts[0]
	target := parts[1]

	if path, query, ok := strings.Cut(target, "?"); ok {
		req.Path = path
		values, err := url.ParseQuery(query)
		if err == nil {
			for k, v := range values {
				if len(v) > 0 {
					req.QueryParams[k] = v[0]
				}
			}
		}
	} else {
		req.Path = target
	}
	return nil
}

func parseCookies(req *Request, cookieHeader string) {
	for _, part := range strings.Split(cookieHeader, "; ") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		req.Cookies[name] = value
	}
}
