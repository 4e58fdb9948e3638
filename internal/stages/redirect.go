package stages

import (
	"net/url"
	"path"
	"strings"

	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
	"wenum/internal/scope"
)

// headExtensions is the static-asset list that makes the redirect stage
// prefer HEAD over GET when following a link (spec §4.6).
var headExtensions = map[string]bool{
	".css": true, ".js": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".ico": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".pdf": true, ".zip": true, ".mp4": true,
}

// RedirectStage follows 3xx Location/Link targets in-scope (spec §4.6),
// ported from original_source's RedirectQ.
type RedirectStage struct {
	queue.BaseStage

	cache *fuzzdata.Cache
	scope *scope.Scope
}

func NewRedirectStage(cache *fuzzdata.Cache, sc *scope.Scope) *RedirectStage {
	return &RedirectStage{
		BaseStage: queue.BaseStage{
			StageName:    "redirects_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		cache: cache,
		scope: sc,
	}
}

func (rs *RedirectStage) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok || r.Code < 300 || r.Code >= 400 || r.History == nil || r.History.Response == nil {
		return []queue.Disposition{queue.ForwardTo(item)}
	}

	out := []queue.Disposition{}
	for _, header := range []string{"Link", "Location"} {
		link := r.History.Response.Header(header)
		if link == "" {
			continue
		}
		if header == "Link" {
			link = parseLinkHeader(link)
			if link == "" {
				continue
			}
		}
		if bf := rs.enqueueLink(r, link); bf != nil {
			out = append(out, queue.ForwardTo(bf))
		}
	}

	out = append(out, queue.ForwardTo(r))
	return out
}

// parseLinkHeader extracts the URL out of a `<url>;rel=...` Link header
// value (spec §4.6 "parse ... Link using `<url>;…`").
func parseLinkHeader(value string) string {
	start := strings.Index(value, "<")
	end := strings.Index(value, ">")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return value[start+1 : end]
}

func (rs *RedirectStage) enqueueLink(r *fuzzdata.ResultItem, link string) *fuzzdata.BackfeedItem {
	target, err := url.Parse(link)
	if err != nil {
		return nil
	}
	base, err := url.Parse(r.URL)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(target)
	targetURL := resolved.String()

	if !rs.scope.InScope(resolved) {
		r.AddFinding("redirects_queue", "Redirect URL is out of scope and will not be followed", "info")
		return nil
	}
	if rs.cache.CheckCache(targetURL, fuzzdata.CategoryProcessed, false) {
		return nil
	}

	method := "GET"
	if headExtensions[strings.ToLower(path.Ext(resolved.Path))] {
		method = "HEAD"
	}

	r.AddFinding("redirects_queue", "Following redirection to "+targetURL, "info")
	return fuzzdata.NewBackfeed(targetURL, method, r.Priority(), r.BackfeedLevel, r.RLevel, r.PluginRLevel)
}
