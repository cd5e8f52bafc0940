package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/readaloud-go/readaloud/config"
	"github.com/readaloud-go/readaloud/extract"
	chromedpx "github.com/readaloud-go/readaloud/extract/chromedp"
	"github.com/readaloud-go/readaloud/extract/readability"
	"github.com/readaloud-go/readaloud/highlight"
	"github.com/readaloud-go/readaloud/segment"
	"github.com/readaloud-go/readaloud/session"
	"github.com/readaloud-go/readaloud/sound"
	"github.com/readaloud-go/readaloud/speech"
	"github.com/readaloud-go/readaloud/speech/yandex"
	"github.com/readaloud-go/readaloud/ui"
)

func main() {
	root := &cobra.Command{
		Use:   "readaloud",
		Short: "Read the main content of a web page aloud, following along in the terminal",
	}

	root.AddCommand(playCMD(), extractCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func newExtractor(cfg *config.Config) (extract.Extractor, error) {
	kind, err := extract.ParseKind(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	switch kind {
	case extract.KindChromedp:
		return chromedpx.New(cfg.FetchTimeout), nil
	default:
		return readability.New(cfg.FetchTimeout), nil
	}
}

// extractArticle runs the extraction boundary, translating its typed errors
// into user-facing messages.
func extractArticle(ctx context.Context, cfg *config.Config, url string) (extract.Article, error) {
	extractor, err := newExtractor(cfg)
	if err != nil {
		return extract.Article{}, err
	}
	article, err := extractor.Extract(ctx, url)
	if err != nil {
		var xerr *extract.Error
		if errors.As(err, &xerr) {
			switch xerr.Code {
			case extract.CodeMissingURL:
				return extract.Article{}, errors.New("no URL given")
			case extract.CodeInvalidURL:
				return extract.Article{}, fmt.Errorf("not a valid http(s) URL: %s", url)
			case extract.CodeFetchFailed:
				return extract.Article{}, fmt.Errorf("could not fetch %s: %w", url, xerr.Err)
			case extract.CodeExtractionFailed:
				return extract.Article{}, fmt.Errorf("no readable article at %s", url)
			}
		}
		return extract.Article{}, err
	}
	return article, nil
}

func playCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "play <url>",
		Short: "Extract an article and read it aloud with a synced highlight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			if cfg.IamToken == "" || cfg.FolderID == "" {
				fmt.Fprintln(os.Stderr, "Error: IAM_TOKEN and FOLDER_ID must be set in the environment or a .env file")
				fmt.Fprintln(os.Stderr, "Create a .env file with:")
				fmt.Fprintln(os.Stderr, "IAM_TOKEN=your_iam_token")
				fmt.Fprintln(os.Stderr, "FOLDER_ID=your_folder_id")
				return errors.New("missing SpeechKit credentials")
			}

			article, err := extractArticle(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			granularity, err := segment.ParseGranularity(cfg.Granularity)
			if err != nil {
				return err
			}
			units := segment.Segment(article.Content, granularity)
			if len(units) == 0 {
				return fmt.Errorf("article at %s has no speakable text", args[0])
			}
			logger.Info("article extracted",
				"title", article.Title, "units", len(units), "granularity", cfg.Granularity)

			player := sound.NewPortaudioPlayer(sound.GetDefaultConfig())
			engine, err := yandex.New(yandex.Config{
				APIKey:   cfg.IamToken,
				FolderID: cfg.FolderID,
			}, player)
			if err != nil {
				return fmt.Errorf("failed to create speech engine: %w", err)
			}
			defer engine.Close()

			policy, ok := session.ParsePolicy(cfg.Policy)
			if !ok {
				return fmt.Errorf("unknown driving policy %q", cfg.Policy)
			}

			var program *tea.Program
			geom := ui.NewGeometry()
			publisher := highlight.NewPublisher(geom, highlight.Band{
				Top:    cfg.ScrollTopMargin,
				Bottom: cfg.ScrollBottomMargin,
			}, func(sig highlight.Signal) {
				if program != nil {
					program.Send(ui.HighlightMsg(sig))
				}
			})

			controller := session.New(engine, session.Config{
				Policy: policy,
				Options: speech.Options{
					Voice:  cfg.Voice,
					Rate:   cfg.Rate,
					Pitch:  cfg.Pitch,
					Volume: cfg.Volume,
				},
				WPM:     cfg.WPM,
				Logger:  logger,
				OnIndex: publisher.OnIndexChanged,
			})

			model := ui.New(article.Title, units, controller, geom)
			program = tea.NewProgram(model, tea.WithAltScreen())

			_, err = program.Run()
			controller.Stop()
			return err
		},
	}
}

func extractCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract an article and print it without speaking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			article, err := extractArticle(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			fmt.Println(article.Title)
			fmt.Println(strings.Repeat("=", len(article.Title)))
			if article.Excerpt != "" {
				fmt.Println(article.Excerpt)
				fmt.Println()
			}
			fmt.Println(article.Content)
			return nil
		},
	}
}
