// Package builtin holds the two reference plugins kept to exercise the
// plugin ABI (spec §1 scopes individual plugin bodies out, save for
// these): Headers, ported from original_source's
// plugins/scripts/headers.py, and MassAssignment, adapted from the
// teacher's pkg/detector/mass_assignment.go.
package builtin

import (
	"context"
	"strings"

	"wenum/internal/fuzzdata"
	"wenum/internal/plugin"
)

// commonResponseHeaders and commonRequestHeaders are the "don't bother
// flagging these, everyone sends them" lists from the original's
// static_data module, trimmed to the common cases.
var commonResponseHeaders = map[string]bool{
	"content-type": true, "content-length": true, "date": true,
	"connection": true, "cache-control": true, "expires": true,
	"last-modified": true, "etag": true, "set-cookie": true,
	"vary": true, "content-encoding": true, "transfer-encoding": true,
}

var commonRequestHeaders = map[string]bool{
	"host": true, "user-agent": true, "accept": true,
	"accept-encoding": true, "accept-language": true, "connection": true,
	"cookie": true, "content-type": true, "content-length": true,
	"referer": true,
}

var serverHeaderNames = map[string]bool{
	"server": true, "x-powered-by": true, "x-aspnet-version": true,
	"x-generator": true, "via": true,
}

// Headers flags uncommon request/response headers and server-identifying
// headers, matching the original's "only the FIRST match... is
// registered" dedup behavior with a per-run seen-set (the original's
// kbase pattern, supplemented feature per SPEC_FULL §15).
type Headers struct {
	plugin.Base
	seenRespUncommon map[string]bool
	seenReqUncommon  map[string]bool
	seenServer       map[string]bool
}

func NewHeaders() *Headers {
	return &Headers{
		seenRespUncommon: make(map[string]bool),
		seenReqUncommon:  make(map[string]bool),
		seenServer:       make(map[string]bool),
	}
}

func (h *Headers) Name() string    { return "headers" }
func (h *Headers) RunOnce() bool   { return false }
func (h *Headers) Validate(*fuzzdata.ResultItem) bool { return true }

func (h *Headers) Run(ctx context.Context, r *fuzzdata.ResultItem, out chan<- plugin.Output) {
	if r.History == nil {
		return
	}

	if r.History.Request != nil {
		for _, hdr := range r.History.Request.Headers {
			h.checkRequestHeader(hdr.Name, hdr.Value, out)
		}
	}
	if r.History.Response != nil {
		for _, hdr := range r.History.Response.Headers {
			h.checkResponseHeader(hdr.Name, out)
			h.checkServerHeader(hdr.Name, hdr.Value, out)
		}
	}
}

func (h *Headers) checkRequestHeader(name, value string, out chan<- plugin.Output) {
	lower := strings.ToLower(name)
	if commonRequestHeaders[lower] || h.seenReqUncommon[lower] {
		return
	}
	h.seenReqUncommon[lower] = true
	out <- plugin.Output{Kind: plugin.KindFinding, Severity: "info",
		Message: "New uncommon HTTP request header: " + name + ": " + value}
}

func (h *Headers) checkResponseHeader(name string, out chan<- plugin.Output) {
	lower := strings.ToLower(name)
	if commonResponseHeaders[lower] || h.seenRespUncommon[lower] {
		return
	}
	h.seenRespUncommon[lower] = true
	out <- plugin.Output{Kind: plugin.KindFinding, Severity: "info",
		Message: "New uncommon HTTP response header: " + name}
}

func (h *Headers) checkServerHeader(name, value string, out chan<- plugin.Output) {
	lower := strings.ToLower(name)
	if !serverHeaderNames[lower] {
		return
	}
	lowerVal := strings.ToLower(value)
	if h.seenServer[lowerVal] {
		return
	}
	h.seenServer[lowerVal] = true
	out <- plugin.Output{Kind: plugin.KindFinding, Severity: "info",
		Message: "New HTTP server header: " + value}
}
