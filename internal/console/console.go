// Package console is the pipeline's human-facing output layer: the
// startup banner, section headers, hit callouts, and the printer
// handles every other package uses instead of touching pterm's package
// globals directly (Design Note "Global warnings / process-wide logger
// init" — a *Printer is constructed once at program entry and passed
// down, rather than initialized as a side effect of package load).
// Grounded in the teacher's pkg/utils/banner.go and logger usage.
package console

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Printer is the handle passed into the pipeline constructor (spec §2
// "AMBIENT STACK"). Debug output is gated by a flag set at construction
// rather than a package-level bool.
type Printer struct {
	debug bool
}

// New builds a Printer. debug enables Debug()'s output (mirrors the
// teacher's -d/--debug flag).
func New(debug bool) *Printer {
	return &Printer{debug: debug}
}

func (p *Printer) Info(format string, args ...any)    { pterm.Info.Println(fmt.Sprintf(format, args...)) }
func (p *Printer) Success(format string, args ...any)  { pterm.Success.Println(fmt.Sprintf(format, args...)) }
func (p *Printer) Warning(format string, args ...any)  { pterm.Warning.Println(fmt.Sprintf(format, args...)) }
func (p *Printer) Error(format string, args ...any)    { pterm.Error.Println(fmt.Sprintf(format, args...)) }

func (p *Printer) Debug(format string, args ...any) {
	if !p.debug {
		return
	}
	pterm.Debug.Println(fmt.Sprintf(format, args...))
}

// Section prints a labeled section header, matching the teacher's
// PrintSection.
func (p *Printer) Section(title string) {
	pterm.DefaultSection.Println(title)
}

// Banner renders the startup banner, kept in the teacher's DefaultBigText
// style, repointed at the fuzzer's name instead of IdorPlus's.
func Banner(version string) {
	banner := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("WE", pterm.NewStyle(pterm.FgLightCyan)),
		pterm.NewLettersFromStringWithStyle("NUM", pterm.NewStyle(pterm.FgLightMagenta)),
	)
	banner.Render()

	pterm.DefaultCenter.Printf("v%s - Web Content Discovery Fuzzer\n", version)
	pterm.DefaultCenter.Println(pterm.LightYellow("Recursion | Plugins | Filters | Auto-filter"))
	pterm.Println()
}

// Hit announces a visible result at the CLI, mirroring the teacher's
// PrintVulnerable callout but for a discovered path/status rather than
// a vulnerability verdict.
func Hit(method, url string, status, lines, words, chars int) {
	style := pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	if status >= 500 {
		style = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	} else if status >= 300 && status < 400 {
		style = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	}
	style.Printf("%-6s %3d", method, status)
	pterm.Printf("  %-8s l=%-5d w=%-5d c=%-6d  %s\n", "", lines, words, chars, url)
}

// ProgressBar wraps pterm's progress bar. No pipeline stage creates one;
// the CLI printer stage prints results line by line.
type ProgressBar struct {
	bar *pterm.ProgressbarPrinter
}

func NewProgressBar(total int) *ProgressBar {
	bar, _ := pterm.DefaultProgressbar.WithTotal(total).WithTitle("fuzzing").Start()
	return &ProgressBar{bar: bar}
}

func (p *ProgressBar) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *ProgressBar) Stop() {
	if p.bar != nil {
		p.bar.Stop()
	}
}
