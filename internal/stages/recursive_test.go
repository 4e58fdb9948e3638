package stages

import (
	"context"
	"testing"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
)

func TestIsDirectoryHitTrailingSlash(t *testing.T) {
	r := fuzzdata.NewResult("http://target/admin/", 0)
	if !isDirectoryHit(r) {
		t.Fatalf("expected a trailing-slash URL to be treated as a directory hit")
	}
}

func TestIsDirectoryHitRedirectToSlash(t *testing.T) {
	r := fuzzdata.NewResult("http://target/admin", 0)
	r.Code = 301
	r.History = &fuzzdata.HTTPHistory{Response: &fuzzdata.Response{
		Status:  301,
		Headers: []fuzzdata.Header{{Name: "Location", Value: "/admin/"}},
	}}
	if !isDirectoryHit(r) {
		t.Fatalf("expected a redirect to the same path plus a slash to count as a directory hit")
	}
}

func TestIsDirectoryHitUnrelatedRedirect(t *testing.T) {
	r := fuzzdata.NewResult("http://target/admin", 0)
	r.Code = 302
	r.History = &fuzzdata.HTTPHistory{Response: &fuzzdata.Response{
		Status:  302,
		Headers: []fuzzdata.Header{{Name: "Location", Value: "/login"}},
	}}
	if isDirectoryHit(r) {
		t.Fatalf("a redirect to an unrelated path must not count as a directory hit")
	}
}

func TestIsDirectoryHitNotADirectory(t *testing.T) {
	r := fuzzdata.NewResult("http://target/file.txt", 0)
	r.Code = 200
	if isDirectoryHit(r) {
		t.Fatalf("a plain 200 on a non-slash path must not count as a directory hit")
	}
}

func TestMaxRecursionConditionUserDepth(t *testing.T) {
	opts := &options.Options{RLevel: 2}
	r := fuzzdata.NewResult("http://target/a/", 0)
	r.RLevel = 2
	if cond := maxRecursionCondition(opts, r); cond == "" {
		t.Fatalf("expected max recursion depth to be reached")
	}
}

func TestMaxRecursionConditionPluginDepth(t *testing.T) {
	opts := &options.Options{PluginRLevel: 1}
	r := fuzzdata.NewResult("http://target/a/", 0)
	r.FromPlugin = true
	r.PluginRLevel = 1
	if cond := maxRecursionCondition(opts, r); cond == "" {
		t.Fatalf("expected max plugin recursion depth to be reached")
	}
}

func TestMaxRecursionConditionUnderDepth(t *testing.T) {
	opts := &options.Options{RLevel: 2}
	r := fuzzdata.NewResult("http://target/a/", 0)
	r.RLevel = 0
	if cond := maxRecursionCondition(opts, r); cond != "" {
		t.Fatalf("expected no recursion limit to apply, got %q", cond)
	}
}

func TestRecursionTargetAppendsMarker(t *testing.T) {
	r := fuzzdata.NewResult("http://target/admin/", 0)
	if got := recursionTarget(r); got != "http://target/admin/FUZZ" {
		t.Fatalf("unexpected recursion target: %q", got)
	}
}

func TestPluginRLevelForIncrementsOnlyWhenFromPlugin(t *testing.T) {
	r := fuzzdata.NewResult("http://target/a/", 0)
	r.FromPlugin = true
	r.PluginRLevel = 1
	if got := pluginRLevelFor(r); got != 2 {
		t.Fatalf("expected plugin rlevel to increment to 2, got %d", got)
	}

	r2 := fuzzdata.NewResult("http://target/a/", 0)
	r2.PluginRLevel = 1
	if got := pluginRLevelFor(r2); got != 1 {
		t.Fatalf("expected plugin rlevel to stay at 1 when not from a plugin, got %d", got)
	}
}

func TestFalsePositiveProbeSameStatusAndWords(t *testing.T) {
	candidate := &fuzzdata.Response{Status: 200, Body: []byte("one two three")}
	probe := func(ctx context.Context, checkURL string) (*fuzzdata.Response, error) {
		return &fuzzdata.Response{Status: 200, Body: []byte("one two three")}, nil
	}
	if !FalsePositiveProbe(probe, "http://target/FUZZ", candidate) {
		t.Fatalf("expected a matching nonce probe to be flagged as a false positive")
	}
}

func TestFalsePositiveProbeDifferentStatus(t *testing.T) {
	candidate := &fuzzdata.Response{Status: 200, Body: []byte("one two three")}
	probe := func(ctx context.Context, checkURL string) (*fuzzdata.Response, error) {
		return &fuzzdata.Response{Status: 404, Body: []byte("not found")}, nil
	}
	if FalsePositiveProbe(probe, "http://target/FUZZ", candidate) {
		t.Fatalf("a distinct status on the nonce probe must not be flagged as a false positive")
	}
}

func TestFalsePositiveProbeSameStatusDifferentWordsSecondNonceDecides(t *testing.T) {
	candidate := &fuzzdata.Response{Status: 200, Body: []byte("one two three four")}
	calls := 0
	probe := func(ctx context.Context, checkURL string) (*fuzzdata.Response, error) {
		calls++
		if calls == 1 {
			return &fuzzdata.Response{Status: 200, Body: []byte("one two")}, nil
		}
		return &fuzzdata.Response{Status: 200, Body: []byte("one two three")}, nil
	}
	if !FalsePositiveProbe(probe, "http://target/FUZZ", candidate) {
		t.Fatalf("expected divergent nonce responses to be flagged as a false positive (not a real hit)")
	}
}

func TestRecursiveStageSkipsAtMaxDepth(t *testing.T) {
	opts := &options.Options{RLevel: 1}
	rs := NewRecursiveStage(opts, fuzzdata.NewCache(), nil)

	r := fuzzdata.NewResult("http://target/admin/", 0)
	r.RLevel = 1
	r.History = &fuzzdata.HTTPHistory{}

	disp := rs.Process(r)
	if len(disp) != 1 || disp[0].Kind != queue.Forward {
		t.Fatalf("expected a single forward disposition at max depth, got %+v", disp)
	}
	if len(r.PluginsRes) != 1 {
		t.Fatalf("expected a skip-recursion finding to be recorded, got %+v", r.PluginsRes)
	}
}

func TestRecursiveStageIgnoresNonDirectoryHits(t *testing.T) {
	opts := &options.Options{RLevel: 3}
	rs := NewRecursiveStage(opts, fuzzdata.NewCache(), nil)

	r := fuzzdata.NewResult("http://target/file.txt", 0)
	r.Code = 200

	disp := rs.Process(r)
	if len(disp) != 1 || disp[0].Kind != queue.Forward {
		t.Fatalf("expected a single forward disposition, got %+v", disp)
	}
	if len(r.PluginsRes) != 0 {
		t.Fatalf("expected no findings recorded for a non-directory hit, got %+v", r.PluginsRes)
	}
}
