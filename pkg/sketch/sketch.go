// Package sketch publishes p5 sketches as static HTML pages.
//
// A sketch needs no engine: [Publisher.Publish] writes the script and an HTML
// wrapper loading the p5 runtime next to each other, and returns the URL the
// wrapper is served under.
package sketch

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

// Defaults for Options.
const (
	DefaultDir        = "temp"
	DefaultBaseURL    = "http://localhost:3000"
	DefaultRuntimeURL = "https://cdnjs.cloudflare.com/ajax/libs/p5.js/1.7.0/p5.min.js"
)

// Options configures a Publisher.
type Options struct {
	Dir        string // Directory the files are written to and served from
	BaseURL    string // Public address; pages are served under BaseURL/p5/
	RuntimeURL string // Address of the p5 runtime script
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.RuntimeURL == "" {
		o.RuntimeURL = DefaultRuntimeURL
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if err := errors.ValidateBaseURL(o.BaseURL); err != nil {
		return err
	}
	if !strings.HasPrefix(o.RuntimeURL, "https://") && !strings.HasPrefix(o.RuntimeURL, "http://") {
		return errors.New(errors.ErrCodeInvalidConfig, "runtime URL must be an http(s) address")
	}
	return nil
}

// Outcome describes a published sketch.
type Outcome struct {
	JobID      string
	ScriptPath string
	PagePath   string
	URL        string
	Duration   time.Duration
}

// Publisher writes sketch pages. It is safe for concurrent use.
type Publisher struct {
	opts   Options
	NewID  func() string
	Logger *log.Logger
}

// New returns a publisher for opts. A nil logger discards output.
func New(opts Options, logger *log.Logger) (*Publisher, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Publisher{opts: opts, NewID: uuid.NewString, Logger: logger}, nil
}

// Options returns the effective options.
func (p *Publisher) Options() Options { return p.opts }

// Publish writes script under a generated id.
func (p *Publisher) Publish(ctx context.Context, script string) (*Outcome, error) {
	return p.PublishWithID(ctx, "", script)
}

// PublishWithID writes p5_animation_<id>.js and p5_animation_<id>.html.
// Both files share the id so the page always loads its own script.
func (p *Publisher) PublishWithID(ctx context.Context, id, script string) (*Outcome, error) {
	start := time.Now()
	diag := errors.Diagnostics{Script: script, ExitCode: -1}
	if err := ctx.Err(); err != nil {
		return nil, errors.Attach(errors.Wrap(errors.ErrCodeWriteFailure, err, "publish canceled"), diag)
	}
	if id == "" {
		id = p.NewID()
	}

	base := "p5_animation_" + id
	jsName, htmlName := base+".js", base+".html"

	page, err := Page(p.opts.RuntimeURL, jsName)
	if err != nil {
		return nil, errors.Attach(err, diag)
	}

	if err := os.MkdirAll(p.opts.Dir, 0o755); err != nil {
		return nil, errors.Attach(errors.Wrap(errors.ErrCodeWriteFailure, err, "create sketch directory"), diag)
	}
	jsPath := filepath.Join(p.opts.Dir, jsName)
	if err := os.WriteFile(jsPath, []byte(script), 0o644); err != nil {
		return nil, errors.Attach(errors.Wrap(errors.ErrCodeWriteFailure, err, "write sketch"), diag)
	}
	htmlPath := filepath.Join(p.opts.Dir, htmlName)
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		os.Remove(jsPath)
		return nil, errors.Attach(errors.Wrap(errors.ErrCodeWriteFailure, err, "write sketch page"), diag)
	}

	out := &Outcome{
		JobID:      id,
		ScriptPath: jsPath,
		PagePath:   htmlPath,
		URL:        strings.TrimRight(p.opts.BaseURL, "/") + "/p5/" + htmlName,
		Duration:   time.Since(start),
	}
	p.Logger.Debug("sketch published", "job", id, "page", htmlPath)
	return out, nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <script src="{{.Runtime}}"></script>
    <style>
        body { margin: 0; display: flex; justify-content: center; align-items: center; min-height: 100vh; background: black; }
        canvas { border: 1px solid #333; }
    </style>
</head>
<body>
    <script src="{{.Script}}"></script>
</body>
</html>
`))

// Page renders the HTML wrapper loading runtimeURL and then scriptName.
func Page(runtimeURL, scriptName string) ([]byte, error) {
	var buf bytes.Buffer
	data := struct{ Runtime, Script string }{runtimeURL, scriptName}
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render sketch page")
	}
	return buf.Bytes(), nil
}
