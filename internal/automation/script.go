package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/go-resty/resty/v2"
)

// ScriptLauncher creates in-process pages backed by a goja runtime.
// Navigation fetches documents over HTTP and exposes their title and
// visible text to scripts.
type ScriptLauncher struct {
	client *resty.Client
}

// NewScriptLauncher creates a launcher. A nil client disables fetching;
// Navigate then only records the URL.
func NewScriptLauncher(client *resty.Client) *ScriptLauncher {
	return &ScriptLauncher{client: client}
}

// Launch creates a fresh page
func (l *ScriptLauncher) Launch(_ context.Context, opts PageOptions) (Page, error) {
	p := &scriptPage{launcher: l, opts: opts}
	if err := p.reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// scriptPage wraps a goja VM with the security controls of a sandbox
type scriptPage struct {
	launcher *ScriptLauncher
	opts     PageOptions

	mu      sync.Mutex
	vm      *goja.Runtime
	console []LogEntry
	url     string
	title   string
	text    string
	closed  bool
}

func (p *scriptPage) reset() error {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		console.Set(level, p.consoleFunc(level))
	}
	vm.Set("console", console)

	// Timers are no-ops; scripts run to completion synchronously
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)

	p.vm = vm
	return p.syncDocument()
}

func (p *scriptPage) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		p.console = append(p.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		return goja.Undefined()
	}
}

// syncDocument publishes page state to the VM's globals
func (p *scriptPage) syncDocument() error {
	location := p.vm.NewObject()
	location.Set("href", p.url)

	document := p.vm.NewObject()
	document.Set("title", p.title)
	document.Set("text", p.text)
	document.Set("location", location)

	navigator := p.vm.NewObject()
	navigator.Set("userAgent", p.opts.UserAgent)

	window := p.vm.NewObject()
	window.Set("innerWidth", p.opts.Viewport.Width)
	window.Set("innerHeight", p.opts.Viewport.Height)

	for name, value := range map[string]*goja.Object{
		"document":  document,
		"location":  location,
		"navigator": navigator,
		"window":    window,
	} {
		if err := p.vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Navigate loads url. Without an HTTP client only the location changes.
func (p *scriptPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPageClosed
	}

	var title, text string
	if p.launcher.client != nil {
		resp, err := p.launcher.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", p.opts.UserAgent).
			Get(url)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", url, err)
		}
		if resp.IsError() {
			return fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode())
		}

		if title, text, err = extractDocument(resp.String()); err != nil {
			return fmt.Errorf("failed to parse %s: %w", url, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	p.url, p.title, p.text = url, title, text
	return p.syncDocument()
}

// extractDocument parses body and returns its title and visible text
func extractDocument(body string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title := doc.Find("head > title").First()
	if title.Length() == 0 {
		title = doc.Find("title").First()
	}

	// Not rendered, so not part of the page text
	doc.Find("script, style, noscript, template, svg").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	return strings.TrimSpace(title.Text()), text, nil
}

// Evaluate runs script with the page's timeout
func (p *scriptPage) Evaluate(ctx context.Context, script string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPageClosed
	}

	start := time.Now()
	p.console = nil

	timeout := p.opts.ScriptTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ScriptTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan struct{})
	exited := make(chan struct{})
	vm := p.vm
	go func() {
		defer close(exited)
		select {
		case <-timer.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := vm.RunString(script)
	close(done)
	<-exited
	// A late interrupt must not leak into the next evaluation
	vm.ClearInterrupt()

	result := &Result{
		Console:  append([]LogEntry{}, p.console...),
		Duration: time.Since(start),
	}
	if err != nil {
		return result, fmt.Errorf("script failed: %w", err)
	}
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result.Value = val.Export()
	}
	return result, nil
}

// Close releases the VM
func (p *scriptPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.vm = nil
	p.console = nil
	return nil
}
