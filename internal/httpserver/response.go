package httpserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// reasonPhrases is the small status-code reason table the response
// builder looks up; unknown codes render with an empty reason.
var reasonPhrases = map[int]string{
	200: "OK",
	302: "Found",
	401: "Unauthorized",
	404: "Not Found",
	500: "Internal Server Error",
}

// Response is the value a handler produces
type Response struct {
	Status      int
	Headers     map[string]string
	headerOrder []string
	Cookies     map[string]string
	Body        string
}

// NewResponse builds a Response with the given body, status, and
// Content-Type, plus the Date header every response carries
func NewResponse(body string, status int, contentType string) *Response {
	r := &Response{
		Status:  status,
		Headers: map[string]string{},
		Cookies: map[string]string{},
		Body:    body,
	}
	r.setHeader("Content-Type", contentType)
	r.setHeader("Date", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	return r
}

func (r *Response) setHeader(key, value string) {
	if _, exists := r.Headers[key]; !exists {
		r.headerOrder = append(r.headerOrder, key)
	}
	r.Headers[key] = value
}

// SetHeader sets an arbitrary response header, preserving insertion order.
func (r *Response) SetHeader(key, value string) {
	r.setHeader(key, value)
}

// SetCookie records a raw cookie value to be emitted as one Set-Cookie
// header. The core deliberately does not set HttpOnly/Secure/SameSite/
// Max-Age attributes, mirroring the original source's behavior.
func (r *Response) SetCookie(name, value string) {
	r.Cookies[name] = value
}

// JSONResponse builds a Response whose body is the JSON encoding of v.
func JSONResponse(v interface{}, status int) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		return NewResponse(fmt.Sprintf(`{"error":%q}`, err.Error()), 500, "application/json")
	}
	return NewResponse(string(data), status, "application/json")
}

// RedirectResponse builds an empty-body 302 Response with Location set.
func RedirectResponse(location string, status int) *Response {
	if status == 0 {
		status = 302
	}
	r := NewResponse("", status, "text/html")
	r.setHeader("Location", location)
	return r
}

// HTMLResponse builds a Response with an HTML body
func HTMLResponse(html string, status int) *Response {
	return NewResponse(html, status, "text/html")
}

// NotFoundResponse is the 404 produced by a route miss
func NotFoundResponse() *Response {
	return NewResponse("404 Not Found", 404, "text/plain")
}

// ToWire renders the Response as HTTP/1.1 wire bytes: status line, headers
// in insertion order, one Set-Cookie header per cookie, a blank line, then
// the body
func (r *Response) ToWire() []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("HTTP/1.1 %d %s\r\n", r.Status, reasonPhrases[r.Status]))

	for _, key := range r.headerOrder {
		b.WriteString(fmt.Sprintf("%s: %s\r\n", key, r.Headers[key]))
	}
	for name, value := range r.Cookies {
		b.WriteString(fmt.Sprintf("Set-Cookie: %s=%s\r\n", name, value))
	}

	b.WriteString("\r\n")
	b.WriteString(r.Body)

	return []byte(b.String())
}
