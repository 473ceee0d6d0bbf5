package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteIsolation(t *testing.T) {
	rt := NewRouter()
	called := false
	rt.Get("/a", func(*Request) *Response {
		called = true
		return NewResponse("ok", 200, "text/plain")
	})

	_, found := rt.Lookup("POST", "/a")
	assert.False(t, found, "POST /a must not match a GET /a registration")

	_, found = rt.Lookup("GET", "/a/")
	assert.False(t, found, "GET /a/ must not match GET /a")

	handler, found := rt.Lookup("GET", "/a")
	assert.True(t, found)
	handler(&Request{})
	assert.True(t, called)
}

func TestUnregisteredMethodMisses(t *testing.T) {
	rt := NewRouter()
	rt.Get("/a", func(*Request) *Response { return NewResponse("ok", 200, "text/plain") })

	_, found := rt.Lookup("PUT", "/a")
	assert.False(t, found)
}
