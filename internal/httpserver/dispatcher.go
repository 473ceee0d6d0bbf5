package httpserver

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/raynardj/readly/internal/constants"
	"github.com/raynardj/readly/internal/errors"
	"github.com/raynardj/readly/internal/logger"
	"github.com/raynardj/readly/internal/metrics"
	"github.com/raynardj/readly/internal/timing"
)

// Dispatcher runs one connection from TLS handshake through response
// write and close. It owns nothing across connections except its
// read-only configuration: the route registry, the middleware chain,
// the optional TLS config, and the server's protocol/host for base_url
// derivation.
type Dispatcher struct {
	Router      *Router
	Middlewares []Middleware
	TLSConfig   *tls.Config
	Protocol    string
	Log         *logger.Logger
	Metrics     *metrics.Registry
}

// Dispatch runs the full per-connection state machine: accepted ->
// tls_handshaking -> reading_headers -> reading_body -> dispatching ->
// writing_response -> closed. Any failure transitions directly to
// closed. Dispatch always closes conn before returning.
func (d *Dispatcher) Dispatch(conn net.Conn) {
	connID := ulid.Make().String()
	log := d.Log.With(logger.String("conn_id", connID))
	timer := timing.NewTimer()
	defer func() {
		conn.Close()
		phases := timer.Finish()
		if d.Metrics != nil {
			d.Metrics.ConnDuration.Observe(phases.Total.Seconds())
		}
		log.Debug("connection phases", logger.String("phases", phases.String()))
	}()

	conn.SetReadDeadline(time.Now().Add(constants.AcceptReadTimeout))

	workConn := conn
	if d.TLSConfig != nil {
		tlsConn := tls.Server(conn, d.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			timer.MarkTLSHandshake()
			log.Error("tls handshake failed", logger.Err(err))
			if d.Metrics != nil {
				d.Metrics.HandshakeFailures.Inc()
			}
			return
		}
		workConn = tlsConn
		timer.MarkTLSHandshake()
	}

	req, err := ParseRequest(workConn)
	timer.MarkParsing()
	if err != nil {
		log.Error("request parse failed", logger.Err(err))
		if d.Metrics != nil {
			d.Metrics.ParseFailures.Inc()
		}
		return
	}

	if host, ok := req.Headers["host"]; ok {
		req.BaseURL = fmt.Sprintf("%s://%s", d.Protocol, host)
	}

	resp := d.resolveAndRun(req)
	timer.MarkDispatching()

	if d.Metrics != nil {
		d.Metrics.RequestsTotal.WithLabelValues(req.Method, fmt.Sprintf("%d", resp.Status)).Inc()
	}
	log.Info("dispatched", logger.String("method", req.Method), logger.String("path", req.Path), logger.Int("status", resp.Status))

	if _, err := workConn.Write(resp.ToWire()); err != nil {
		log.Error("writing response failed", logger.Err(err))
	}
	timer.MarkWritingResponse()
}

// resolveAndRun looks up the handler for (req.Method, req.Path), applies
// every registered middleware in registration order, and recovers any
// uncaught handler failure into a 500.
func (d *Dispatcher) resolveAndRun(req *Request) (resp *Response) {
	handler, found := d.Router.Lookup(req.Method, req.Path)
	if !found {
		return NotFoundResponse()
	}

	for _, mw := range d.Middlewares {
		handler = mw.Wrap(handler)
	}

	defer func() {
		if r := recover(); r != nil {
			herr := errors.New(errors.ErrorTypeHandler, "Dispatcher.resolveAndRun", fmt.Sprintf("%v", r), nil)
			d.Log.Error("handler panicked", logger.Err(herr))
			resp = NewResponse(fmt.Sprintf("500 Internal Server Error: %v", r), 500, "text/plain")
		}
	}()

	return handler(req)
}
