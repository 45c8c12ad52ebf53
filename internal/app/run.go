package app

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/flowspec/internal/ctxlog"
	"github.com/specialistvlad/flowspec/internal/fsutil"
	"github.com/specialistvlad/flowspec/internal/pipeline"
	"github.com/specialistvlad/flowspec/internal/source"
)

// Run compiles every specification named by the configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	sources, err := a.gatherSources()
	if err != nil {
		return err
	}
	a.logger.Debug("Specification sources gathered.", "count", len(sources))

	opts := pipeline.Options{
		MaxIncludeDepth: a.config.MaxIncludeDepth,
		SkipChecks:      a.config.SkipChecks,
	}
	for _, src := range sources {
		res, err := pipeline.Run(ctx, src, opts)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", src, err)
		}
		a.summarize(src, res)
		if a.config.Emit == "yaml" {
			// The parsed tree round-trips; the linked tree would render
			// every resolved reference inline.
			out, err := yaml.Marshal(res.Parsed)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", src, err)
			}
			fmt.Fprintf(a.outW, "---\n%s", out)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// gatherSources expands the configured path into the list of specification
// sources to compile. A directory compiles every YAML file under it; a
// file or remote URI compiles as-is.
func (a *App) gatherSources() ([]string, error) {
	path := a.config.SpecPath
	if source.IsURI(path) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			files, err := fsutil.FindFilesByExtensions(path, ".yaml", ".yml")
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", path, err)
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no YAML specification files found in %s", path)
			}
			return files, nil
		}
	}
	return []string{path}, nil
}

// summarize logs what a compiled source contains.
func (a *App) summarize(src string, res *pipeline.Result) {
	if app := res.Lowered.App; app != nil {
		a.logger.Info("Compiled application.",
			"source", src,
			"application", app.ID,
			"models", len(app.Models),
			"flows", len(app.Flows),
			"tools", len(app.Tools),
			"types", res.Types.Len(),
		)
		return
	}
	a.logger.Info("Compiled component list.",
		"source", src,
		"type", res.Parsed.Type.String(),
	)
}
