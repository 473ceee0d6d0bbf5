// Package tlsconfig builds the server-side crypto/tls.Config used by the
// connection dispatcher: a certificate+key pair loaded once at startup,
// no client certificates, no rotation.
package tlsconfig

import "crypto/tls"

// secureCipherSuites is the minimum TLS version profile this server
// offers: TLS 1.2+, ECDHE/AEAD cipher suites only. There is no
// legacy/compatible profile.
var secureCipherSuites = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// LoadServer builds a server-side tls.Config from a PEM certificate and
// key pair loaded once at startup. ClientAuth is left at its zero value
// (NoClientCert): this is a server-auth-only handshake.
func LoadServer(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: secureCipherSuites,
	}, nil
}
