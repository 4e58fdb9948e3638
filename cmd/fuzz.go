package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wenum/internal/config"
	"wenum/internal/console"
	"wenum/internal/engine"
	"wenum/internal/ferr"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/payload"

	"github.com/spf13/cobra"
)

// fuzz flag locals. wenum, like the teacher's cmd/scan.go, reads every
// flag into a package-local var and only builds its config/options
// structs once RunE fires, so PersistentPreRun's banner print doesn't
// need any of this state.
var (
	fuzzURL       string
	fuzzMethod    string
	fuzzPostData  string
	fuzzHeaders   []string
	fuzzCookies   []string
	fuzzWordlists []string

	fuzzHideCodes  string
	fuzzHideWords  string
	fuzzHideLines  string
	fuzzFilterExpr string
	fuzzPreFilters []string
	fuzzHardFilter bool
	fuzzAutoFilter bool

	fuzzRLevel       int
	fuzzPluginRLevel int
	fuzzScripts      []string

	fuzzConcurrent  int
	fuzzReqDelay    float64
	fuzzFollow      bool
	fuzzDomainScope bool
	fuzzNoScanmode  bool
	fuzzLimitReqs   bool
	fuzzDryRun      bool
	fuzzCacheFile   string

	fuzzOutputFile string
	fuzzNoProgress bool
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Short: "Run a fuzzing job against a target",
	Long: `fuzz sends a dictionary-driven stream of requests at a URL
containing one or more FUZZ/FUZ2Z/... markers, routing every response
through the filter/recursion/plugin pipeline (spec §2).`,
	RunE: runFuzz,
}

func init() {
	f := fuzzCmd.Flags()

	f.StringVarP(&fuzzURL, "url", "u", "", "target URL, containing FUZZ/FUZ2Z/... markers")
	f.StringVarP(&fuzzMethod, "method", "X", "GET", "HTTP method")
	f.StringVarP(&fuzzPostData, "data", "D", "", "POST data (may itself contain markers)")
	f.StringArrayVarP(&fuzzHeaders, "header", "H", nil, `extra header "name: value" (repeatable)`)
	f.StringArrayVarP(&fuzzCookies, "cookie", "b", nil, "cookie value (repeatable)")
	f.StringArrayVarP(&fuzzWordlists, "wordlist", "w", nil, "wordlist file, one per FUZZ marker in order (repeatable)")

	f.StringVar(&fuzzHideCodes, "hc", "", "hide responses with these status codes (comma-separated)")
	f.StringVar(&fuzzHideWords, "hw", "", "hide responses with these word counts (comma-separated)")
	f.StringVar(&fuzzHideLines, "hl", "", "hide responses with these line counts (comma-separated)")
	f.StringVar(&fuzzFilterExpr, "filter", "", "post-transport filter expression")
	f.StringArrayVar(&fuzzPreFilters, "prefilter", nil, "pre-transport filter expression (repeatable)")
	f.BoolVar(&fuzzHardFilter, "hard-filter", false, "discard instead of merely hide filtered results")
	f.BoolVar(&fuzzAutoFilter, "auto-filter", false, "learn and filter repeated false-positive responses")

	f.IntVarP(&fuzzRLevel, "recursion", "R", 0, "recursion depth for discovered directories")
	f.IntVarP(&fuzzPluginRLevel, "plugin-recursion", "q", 0, "recursion depth for plugin-synthesized seeds")
	f.StringSliceVar(&fuzzScripts, "script", nil, "builtin plugin names to run (comma-separated)")

	f.IntVarP(&fuzzConcurrent, "concurrent", "t", 10, "concurrent requests in flight")
	f.Float64VarP(&fuzzReqDelay, "req-delay", "s", 0, "delay between requests, in seconds")
	f.BoolVarP(&fuzzFollow, "follow-redirects", "F", false, "follow redirects")
	f.BoolVarP(&fuzzDomainScope, "domain-scope", "o", false, "scope recursion/plugins to the registrable domain, not just the host")
	f.BoolVarP(&fuzzNoScanmode, "fatal", "Z", false, "do not retry failed requests; transport errors are still reported as results and the run continues")
	f.BoolVar(&fuzzLimitReqs, "limit-requests", false, "skip new seeds/recursion once the pool's queued-request count grows too large")
	f.BoolVar(&fuzzDryRun, "dry-run", false, "build the dictionary and print what would be sent, without sending it")
	f.StringVar(&fuzzCacheFile, "cachefile", "", "persist the seen-URL cache to this file across runs")

	f.StringVarP(&fuzzOutputFile, "output", "f", "", "write JSON results to this file")
	f.BoolVarP(&fuzzNoProgress, "no-progress", "a", false, "disable the progress bar")

	rootCmd.AddCommand(fuzzCmd)
}

func runFuzz(cmd *cobra.Command, args []string) error {
	if fuzzURL == "" && len(args) > 0 {
		fuzzURL = args[0]
	}
	if fuzzURL == "" {
		return ferr.New(ferr.BadOptions, "a target URL is required (-u or positional)")
	}
	if !strings.Contains(fuzzURL, "FUZZ") {
		return ferr.New(ferr.BadOptions, "target URL must contain at least one FUZZ marker")
	}

	cfg, err := loadFuzzConfig()
	if err != nil {
		return err
	}

	out := console.New(debug)

	sources, err := buildSources(fuzzWordlists)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(fuzzHeaders, fuzzCookies)
	if err != nil {
		return err
	}

	filterExpr, err := buildHideFilter(fuzzFilterExpr, fuzzHideCodes, fuzzHideWords, fuzzHideLines)
	if err != nil {
		return err
	}

	opts := &engine.Options{
		TargetURL:              fuzzURL,
		Method:                 fuzzMethod,
		Headers:                headers,
		Body:                   []byte(fuzzPostData),
		Concurrent:             fuzzConcurrent,
		Delay:                  time.Duration(fuzzReqDelay * float64(time.Second)),
		RLevel:                 fuzzRLevel,
		PluginRLevel:           fuzzPluginRLevel,
		LimitRequests:          fuzzLimitReqs,
		DomainScope:            fuzzDomainScope,
		FollowRedirects:        fuzzFollow,
		HardFilter:             fuzzHardFilter,
		AutoFilter:             fuzzAutoFilter,
		DryRun:                 fuzzDryRun,
		ConcurrentPlugins:      cfg.General.ConcurrentPlugins,
		CancelOnPluginExcept:   cfg.General.CancelOnPluginExcept,
		FilterExpr:             filterExpr,
		ScriptNames:            fuzzScripts,
		OutputFile:             fuzzOutputFile,
		ProgressBar:            !fuzzNoProgress,
		CacheFile:              fuzzCacheFile,
	}
	for _, expr := range fuzzPreFilters {
		if opts.PreFilterExpr == "" {
			opts.PreFilterExpr = expr
		} else {
			opts.PreFilterExpr = opts.PreFilterExpr + " and " + expr
		}
	}

	client := httpclient.New(httpclient.Options{
		Timeout:     10 * time.Second,
		MaxRetries:  parseRetries(cfg),
		VerifyTLS:   cfg.Scanner.VerifyTLS,
		Concurrent:  fuzzConcurrent,
		Delay:       opts.Delay,
		Proxies:     proxyList,
		ExtraHeader: cfg.Transport.Headers,
	})
	pool := httpclient.NewPool(client, httpclient.NewRateLimiter(fuzzConcurrent*4, 0, 0), fuzzConcurrent, fuzzNoScanmode)

	e, err := engine.New(opts, pool, out, sources)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		out.Warning("interrupted, draining in-flight requests")
		cancel()
	}()

	e.Run(ctx)
	e.Stats.Print()
	out.Info(e.Summary())
	return nil
}

// loadFuzzConfig applies spec §6.3: a --config file, falling back to
// config.Default() when none is given (teacher's cmd/scan.go pattern).
func loadFuzzConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func parseRetries(cfg *config.Config) int {
	return cfg.Scanner.MaxRetries
}

// buildSources opens one wordlist file per FUZZ/FUZ2Z/... marker, in
// the order -w was given, matching the original's "one -w per marker
// position" convention.
func buildSources(paths []string) ([]payload.Source, error) {
	if len(paths) == 0 {
		return nil, ferr.New(ferr.BadOptions, "at least one -w wordlist is required")
	}
	sources := make([]payload.Source, 0, len(paths))
	for _, p := range paths {
		words, err := readWordlist(p)
		if err != nil {
			return nil, ferr.Wrap(ferr.BadFile, "reading wordlist "+p, err)
		}
		sources = append(sources, payload.NewWordlistSource(words))
	}
	return sources, nil
}

func readWordlist(path string) ([]string, error) {
	var f *os.File
	var err error
	if path == "-" {
		f = os.Stdin
	} else {
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// parseHeaders turns repeated "name: value" flags and -b cookie values
// into the Header slice the transport stage attaches to every request.
func parseHeaders(raw, cookies []string) ([]fuzzdata.Header, error) {
	headers := make([]fuzzdata.Header, 0, len(raw)+1)
	for _, h := range raw {
		idx := strings.Index(h, ":")
		if idx < 0 {
			return nil, ferr.New(ferr.BadOptions, `header must be "name: value": `+h)
		}
		headers = append(headers, fuzzdata.Header{
			Name:  strings.TrimSpace(h[:idx]),
			Value: strings.TrimSpace(h[idx+1:]),
		})
	}
	if len(cookies) > 0 {
		headers = append(headers, fuzzdata.Header{Name: "Cookie", Value: strings.Join(cookies, "; ")})
	}
	return headers, nil
}

// buildHideFilter composes --filter with --hc/--hw/--hl into a single
// filterlang expression (spec §6.1's hide-if flags are sugar over the
// general filter language, same as the original).
func buildHideFilter(explicit, hc, hw, hl string) (string, error) {
	var clauses []string
	if explicit != "" {
		clauses = append(clauses, "("+explicit+")")
	}
	if c := hideClause("code", hc); c != "" {
		clauses = append(clauses, c)
	}
	if c := hideClause("words", hw); c != "" {
		clauses = append(clauses, c)
	}
	if c := hideClause("lines", hl); c != "" {
		clauses = append(clauses, c)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " and "), nil
}

// hideClause turns a comma-separated value list for field into
// "not (field==v1 or field==v2 or ...)", so a match hides the result.
func hideClause(field, values string) string {
	if values == "" {
		return ""
	}
	var parts []string
	for _, v := range strings.Split(values, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.Atoi(v); err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s==%s", field, v))
	}
	if len(parts) == 0 {
		return ""
	}
	return "not (" + strings.Join(parts, " or ") + ")"
}
