package fuzzdata

import (
	"strings"
	"time"
)

// SeedItem represents a SEED pipeline item: a starting point for a
// directory expansion that will be expanded by the seed stage into a full
// cartesian product of payloads.
type SeedItem struct {
	base
	URL          string
	RLevel       int
	PluginRLevel int
	BackfeedLevel int
	FromPlugin   bool
}

func NewSeed(url string, priority, rlevel, pluginRLevel, backfeedLevel int, fromPlugin bool) *SeedItem {
	return &SeedItem{
		base:          newBase(priority),
		URL:           url,
		RLevel:        rlevel,
		PluginRLevel:  pluginRLevel,
		BackfeedLevel: backfeedLevel,
		FromPlugin:    fromPlugin,
	}
}

func (s *SeedItem) Type() ItemType { return Seed }

// BackfeedItem represents a BACKFEED pipeline item: a synthesized request
// enqueued by a plugin or redirect handler that re-enters the transport
// stage directly, without incrementing pending_seeds.
type BackfeedItem struct {
	base
	URL           string
	Method        string
	Body          []byte // nil reuses the originating request's body unmodified
	BackfeedLevel int
	RLevel        int
	PluginRLevel  int
}

func NewBackfeed(url, method string, priority, backfeedLevel, rlevel, pluginRLevel int) *BackfeedItem {
	return &BackfeedItem{
		base:          newBase(priority),
		URL:           url,
		Method:        method,
		BackfeedLevel: backfeedLevel,
		RLevel:        rlevel,
		PluginRLevel:  pluginRLevel,
	}
}

func (b *BackfeedItem) Type() ItemType { return Backfeed }

// MessageItem carries an informational string through the pipeline
// (e.g. a plugin-generated "followed redirect to X" note attached
// alongside a RESULT).
type MessageItem struct {
	base
	Text string
}

func NewMessage(text string, priority int) *MessageItem {
	return &MessageItem{base: newBase(priority), Text: text}
}

func (m *MessageItem) Type() ItemType { return Message }

// Header is a single request/response header line, kept as a slice
// (rather than map[string][]string) so ordering is stable for filter
// output and deterministic tests.
type Header struct {
	Name  string
	Value string
}

// Request is the minimal outgoing-request shape the filter language and
// reporter need; it intentionally does not embed *resty.Request so the
// Field schema (internal/filterlang) can bind dotted paths without
// reflecting over a third-party type.
type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
}

// Response is the minimal HTTP response shape recorded for a Result.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HTTPHistory is the request/response pair attached to a completed
// Result. Invariant (spec §3): a RESULT has a completed History.
type HTTPHistory struct {
	Request  *Request
	Response *Response
}

// ErrorCode is the ERROR_CODE sentinel spec §4.2/§7 describe: a
// transport-error result's Code is set to this value rather than left
// at a real HTTP status, so filter expressions can test for it via the
// `XXX` grammar token (internal/filterlang/field.go's xxxSentinel).
const ErrorCode = -1

// PluginFinding is one entry contributed to Result.PluginsRes (spec §4.7).
type PluginFinding struct {
	Plugin   string
	Message  string
	Severity string // "info", "warning", "vulnerability"
}

// ResultItem is a RESULT pipeline item: one completed request attempt.
type ResultItem struct {
	base
	ResultNumber  int64
	URL           string
	Method        string
	History       *HTTPHistory
	PayloadMan    *PayloadManager
	RLevel        int
	PluginRLevel  int
	BackfeedLevel int
	FromPlugin    bool
	IsBaseline    bool
	PluginsRes    []PluginFinding
	Exception     error
	Annotation    string // user-settable via the filter language's `description :=` assignment

	// Derived metrics, computed once the response body is available.
	Code  int
	Lines int
	Words int
	Chars int
	Timer time.Duration
}

func NewResult(url string, priority int) *ResultItem {
	return &ResultItem{base: newBase(priority), URL: url}
}

func (r *ResultItem) Type() ItemType { return Result }

func (r *ResultItem) AddFinding(plugin, message, severity string) {
	r.PluginsRes = append(r.PluginsRes, PluginFinding{Plugin: plugin, Message: message, Severity: severity})
}
