// Package handlers exposes the triage controller as a JSON HTTP API.
//
// Every command maps to one route under /api. Refusals come back as 400 or
// 409 with a JSON body naming the field and reason, so a client can prompt
// for confirmation and retry. Photo paths travel in query strings or JSON
// bodies, never in the URL path. Thumbnails are served only for paths in
// the current session.
package handlers
