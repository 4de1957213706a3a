package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/academic-web/internal/app"
	"finitefield.org/academic-web/internal/observability"
	"finitefield.org/academic-web/internal/prefs"
)

var (
	renderFragment   string
	renderLang       string
	renderTheme      string
	renderRegionOnly bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one route to stdout",
	Long: `render boots the page for a location fragment such as "#/posts" and
prints the resulting HTML. It exits non-zero when content cannot be loaded,
after printing the page with its unavailable notice.`,
	Example: `  web render --fragment '#/posts/first-post' --lang it`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := observability.NewLogger(logLevel)
		if err != nil {
			return fmt.Errorf("initialise logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()

		seed := map[string]string{}
		if renderLang != "" {
			seed[prefs.KeyLanguage] = renderLang
		}
		if renderTheme != "" {
			seed[prefs.KeyTheme] = renderTheme
		}
		a, err := app.New(app.Options{
			Site:     cfg.Site,
			Fetcher:  newFetcher(cfg),
			Store:    prefs.NewMemoryStore(seed),
			Fragment: renderFragment,
			Logger:   logger.Named("render"),
		})
		if err != nil {
			return err
		}
		bootErr := a.Boot(cmd.Context())
		if err := writeRendered(cmd.OutOrStdout(), a, renderRegionOnly); err != nil {
			return err
		}
		if bootErr != nil {
			logger.Error("render failed", zap.String("fragment", renderFragment), zap.Error(bootErr))
			return bootErr
		}
		return nil
	},
}

func writeRendered(w io.Writer, a *app.App, regionOnly bool) error {
	if !regionOnly {
		return a.Render(w)
	}
	region, err := a.Region()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, region)
	return err
}

func init() {
	renderCmd.Flags().StringVar(&renderFragment, "fragment", "", `location fragment, e.g. "#/research"`)
	renderCmd.Flags().StringVar(&renderLang, "lang", "", "language as if persisted by the visitor")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "theme as if persisted by the visitor (light or dark)")
	renderCmd.Flags().BoolVar(&renderRegionOnly, "region-only", false, "print only the content region")
}
