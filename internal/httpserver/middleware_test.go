package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raynardj/readly/internal/session"
)

func TestSessionMiddlewareRoundTripNoMutation(t *testing.T) {
	sm := NewSessionMiddleware([]byte("secret"), "session", nil)

	handler := sm.Wrap(func(req *Request) *Response {
		return NewResponse("ok", 200, "text/plain")
	})

	values := session.Values{"user": map[string]interface{}{"sub": "1"}}
	envelope := session.New([]byte("secret"), nil)
	inbound, err := envelope.Encode(values)
	require.NoError(t, err)

	req := &Request{Cookies: map[string]string{"session": inbound}}
	resp := handler(req)

	assert.Equal(t, inbound, resp.Cookies["session"])
}

func TestSessionMiddlewareClearsEmptySession(t *testing.T) {
	sm := NewSessionMiddleware([]byte("secret"), "session", nil)
	handler := sm.Wrap(func(req *Request) *Response {
		return NewResponse("ok", 200, "text/plain")
	})

	req := &Request{Cookies: map[string]string{}}
	resp := handler(req)

	assert.Equal(t, "", resp.Cookies["session"])
}

func TestSessionMiddlewareResignsOnMutation(t *testing.T) {
	sm := NewSessionMiddleware([]byte("secret"), "session", nil)
	handler := sm.Wrap(func(req *Request) *Response {
		req.Session["user"] = "alice"
		return NewResponse("ok", 200, "text/plain")
	})

	req := &Request{Cookies: map[string]string{}}
	resp := handler(req)

	envelope := session.New([]byte("secret"), nil)
	decoded := envelope.Decode(resp.Cookies["session"])
	assert.Equal(t, "alice", decoded["user"])
}

func TestRequireAuthRejectsMissingUser(t *testing.T) {
	called := false
	handler := RequireAuth(func(req *Request) *Response {
		called = true
		return NewResponse("ok", 200, "text/plain")
	}, "session", nil)

	req := &Request{Session: session.Values{}}
	resp := handler(req)

	assert.False(t, called)
	assert.Equal(t, 401, resp.Status)
	assert.Equal(t, `{"error":"Unauthorized"}`, resp.Body)
	assert.Equal(t, "", resp.Cookies["session"])
}

func TestRequireAuthAllowsPresentUser(t *testing.T) {
	called := false
	handler := RequireAuth(func(req *Request) *Response {
		called = true
		return NewResponse("ok", 200, "text/plain")
	}, "session", nil)

	req := &Request{Session: session.Values{"user": map[string]interface{}{"sub": "1"}}}
	resp := handler(req)

	assert.True(t, called)
	assert.Equal(t, 200, resp.Status)
}
