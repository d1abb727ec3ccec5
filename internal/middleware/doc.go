// Package middleware provides HTTP middleware for the triage server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression of JSON responses
//
// Every response writer wrapper supports http.Hijacker so the websocket
// endpoint can sit behind the same chain.
package middleware
