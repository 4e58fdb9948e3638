// Package reporter persists RESULT items to a JSON report (spec §6.2),
// adapted from the teacher's pkg/reporter/reporter.go: the IDOR
// "findings" list becomes the fuzzer's result-object schema.
package reporter

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"wenum/internal/fuzzdata"
)

// Entry is one reported result, named result_number/url/method/... per
// spec §6.2.
type Entry struct {
	ResultNumber int64           `json:"result_number"`
	URL          string          `json:"url"`
	Method       string          `json:"method"`
	Code         int             `json:"code"`
	Lines        int             `json:"lines"`
	Words        int             `json:"words"`
	Chars        int             `json:"chars"`
	Timer        float64         `json:"timer"`
	Server       string          `json:"server"`
	Location     string          `json:"location"`
	Plugins      []PluginFinding `json:"plugins,omitempty"`
}

type PluginFinding struct {
	Plugin   string `json:"plugin"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Report is the document written to disk: a scan timestamp plus every
// entry accumulated so far.
type Report struct {
	ScanTime time.Time `json:"scan_time"`
	Results  []Entry   `json:"results"`
}

// Reporter accumulates Entries under a mutex so it can be shared between
// the pipeline's file-printer stage (one writer per flush) and a final
// summary dump at shutdown.
type Reporter struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Reporter {
	return &Reporter{}
}

// Add converts a completed ResultItem into an Entry and appends it.
func (r *Reporter) Add(result *fuzzdata.ResultItem) {
	entry := Entry{
		ResultNumber: result.ResultNumber,
		URL:          result.URL,
		Method:       result.Method,
		Code:         result.Code,
		Lines:        result.Lines,
		Words:        result.Words,
		Chars:        result.Chars,
		Timer:        result.Timer.Seconds(),
	}
	if result.History != nil && result.History.Response != nil {
		entry.Server = result.History.Response.Header("Server")
		entry.Location = result.History.Response.Header("Location")
	}
	for _, f := range result.PluginsRes {
		entry.Plugins = append(entry.Plugins, PluginFinding{Plugin: f.Plugin, Message: f.Message, Severity: f.Severity})
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// WriteFile marshals the accumulated report to path as indented JSON.
func (r *Reporter) WriteFile(path string) error {
	r.mu.Lock()
	report := Report{ScanTime: time.Now(), Results: append([]Entry(nil), r.entries...)}
	r.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Len reports how many entries have been recorded so far.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
