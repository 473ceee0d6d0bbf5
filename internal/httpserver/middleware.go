package httpserver

import (
	"github.com/raynardj/readly/internal/logger"
	"github.com/raynardj/readly/internal/session"
)

// Middleware transforms a Handler into a wrapped Handler: a callable
// that decorates another callable. The server holds an ordered list
// and composes them explicitly.
type Middleware interface {
	Wrap(next Handler) Handler
}

// SessionMiddleware loads the signed session from the named cookie
// before the handler runs, and re-signs it (or clears the cookie)
// after. It is the "JWT" session component of the server core.
type SessionMiddleware struct {
	envelope   *session.Envelope
	cookieName string
	log        *logger.Logger
}

// NewSessionMiddleware builds a SessionMiddleware keyed by secret, reading
// and writing the named cookie (default "session").
func NewSessionMiddleware(secret []byte, cookieName string, log *logger.Logger) *SessionMiddleware {
	if cookieName == "" {
		cookieName = "session"
	}
	if log == nil {
		log = logger.Default
	}
	return &SessionMiddleware{
		envelope:   session.New(secret, log),
		cookieName: cookieName,
		log:        log,
	}
}

// Clear resets the session cookie to an empty value, the client-side
// signal to clear it.
func (m *SessionMiddleware) Clear(resp *Response) {
	resp.SetCookie(m.cookieName, "")
}

// Wrap installs request.Session before next runs and re-signs it onto the
// response afterward pre/post contract.
func (m *SessionMiddleware) Wrap(next Handler) Handler {
	return func(req *Request) *Response {
		cookie := req.Cookies[m.cookieName]
		req.Session = m.envelope.Decode(cookie)

		resp := next(req)

		if len(req.Session) == 0 {
			m.Clear(resp)
			return resp
		}

		encoded, err := m.envelope.Encode(req.Session)
		if err != nil {
			m.log.Error("failed to sign outbound session", logger.Err(err))
			m.Clear(resp)
			return resp
		}
		resp.SetCookie(m.cookieName, encoded)
		return resp
	}
}

// RequireAuth wraps handler with the auth gate: requests without a
// "user" key in session are rejected with 401 and an explicitly
// cleared session cookie before the handler ever runs.
func RequireAuth(handler Handler, cookieName string, log *logger.Logger) Handler {
	if cookieName == "" {
		cookieName = "session"
	}
	if log == nil {
		log = logger.Default
	}
	return func(req *Request) *Response {
		if _, authenticated := req.Session["user"]; !authenticated {
			keys := make([]string, 0, len(req.Session))
			for k := range req.Session {
				keys = append(keys, k)
			}
			log.Debug("unauthorized visit", logger.String("path", req.Path), logger.String("session_keys", sessionKeysSummary(keys)))

			resp := JSONResponse(map[string]string{"error": "Unauthorized"}, 401)
			resp.SetCookie(cookieName, "")
			return resp
		}
		return handler(req)
	}
}

func sessionKeysSummary(keys []string) string {
	if len(keys) == 0 {
		return "(none)"
	}
	out := keys[0]
	for _, k := range keys[1:] {
		out += "," + k
	}
	return out
}
