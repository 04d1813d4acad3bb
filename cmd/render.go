package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiredom/wiredom/internal/assets"
	"github.com/wiredom/wiredom/internal/config"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/internal/middleware"
	"github.com/wiredom/wiredom/internal/renderer"
	"github.com/wiredom/wiredom/internal/watcher"
	"github.com/wiredom/wiredom/pkg/wiredom"
)

var renderWatch bool

var renderCmd = &cobra.Command{
	Use:     "render <component>",
	Aliases: []string{"r"},
	Short:   "Resolve a component through the container and render it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		c, err := buildContainer(logger)
		if err != nil {
			return err
		}
		r, err := wiredom.NewRenderer(c, logger)
		if err != nil {
			return err
		}

		name := args[0]
		if err := renderOnce(cmd, r, cfg, name); err != nil {
			return err
		}

		if renderWatch || cfg.Render.Watch {
			return watchAndRender(cmd, r, cfg, logger, name)
		}
		return nil
	},
}

func renderOnce(cmd *cobra.Command, r *renderer.ComponentRenderer, cfg *config.Config, name string) error {
	ctx := cmd.Context()
	if cfg.Render.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Render.Timeout)
		defer cancel()
	}

	out, err := r.RenderByName(ctx, name, middleware.MapContext{})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)

	refs, err := assets.NewCollector().Collect(strings.NewReader(out))
	if err != nil {
		return err
	}
	for _, ref := range refs {
		fmt.Fprintf(cmd.OutOrStdout(), "asset: %s[%s] %s\n", ref.Tag, ref.Attr, ref.URL)
	}
	return nil
}

// watchAndRender re-renders the component whenever a watched asset changes,
// until interrupted.
func watchAndRender(cmd *cobra.Command, r *renderer.ComponentRenderer, cfg *config.Config, logger logging.Logger, name string) error {
	if len(cfg.Assets.Paths) == 0 {
		return fmt.Errorf("watch mode needs assets.paths in the configuration")
	}

	aw, err := watcher.NewAssetWatcher(300 * time.Millisecond)
	if err != nil {
		return err
	}
	defer func() { _ = aw.Stop() }()

	aw.AddFilter(watcher.ExtensionFilter(cfg.Assets.Extensions))
	for _, path := range cfg.Assets.Paths {
		if err := aw.AddRecursive(path); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	aw.AddHandler(func(events []watcher.ChangeEvent) error {
		logger.Info(ctx, "assets changed, re-rendering", "component", name, "changes", len(events))
		return renderOnce(cmd, r, cfg, name)
	})
	aw.Start(ctx)

	<-ctx.Done()
	return nil
}

func init() {
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render on asset changes")
	rootCmd.AddCommand(renderCmd)
}
