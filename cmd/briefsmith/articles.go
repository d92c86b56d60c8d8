package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pevans/briefsmith/article"
	"github.com/pevans/briefsmith/brief"
	"github.com/pevans/briefsmith/browser"
	"github.com/pevans/briefsmith/curation"
	"github.com/pevans/briefsmith/urlcheck"
	"github.com/spf13/cobra"
)

var (
	outputJSON bool

	generateFile    string
	generateFormat  string
	generateBrowser bool
	generateSave    bool
	generateTitle   string
	generatePostURL string

	feedCurate bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch one article and print the extracted text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := current.generator(nil).FetchArticle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(cmd.OutOrStdout(), content)
		}
		printContent(cmd.OutOrStdout(), content)
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a curated digest into brief items",
	Long:  "Reads a curated digest from file, or stdin when no file or - is given, and prints the parsed items.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		items := curation.Parse(text)
		if len(items) == 0 {
			return fmt.Errorf("could not parse any articles from the input")
		}
		if outputJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		printItems(cmd.OutOrStdout(), items)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [url...]",
	Short: "Fetch, summarize and render a brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if generateFile != "" {
			data, err := os.ReadFile(generateFile)
			if err != nil {
				return fmt.Errorf("failed to read url list: %w", err)
			}
			urls = append(urls, urlcheck.ParseURLList(string(data))...)
		}
		if len(urls) == 0 {
			return fmt.Errorf("at least one url is required")
		}

		inputs := make([]article.Input, len(urls))
		for i, u := range urls {
			inputs[i] = article.Input{ID: urlcheck.GenerateID(), URL: u}
		}

		var manager *browser.Manager
		if generateBrowser {
			m, err := current.manager()
			if err != nil {
				return err
			}
			defer m.Close()
			manager = m
		}

		outcome, err := current.generator(manager).Generate(cmd.Context(), inputs, "")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printFailures(cmd.ErrOrStderr(), outcome.Errors)
		if !outcome.Success {
			return fmt.Errorf("no articles could be summarized")
		}

		if generateSave {
			if err := saveBrief(cmd, outcome.Brief.Articles); err != nil {
				return err
			}
		}

		return printBrief(out, outcome.Brief, generateFormat, generatePostURL)
	},
}

func saveBrief(cmd *cobra.Command, articles []article.Summarized) error {
	store, err := current.briefStore()
	if err != nil {
		return err
	}
	defer store.Close()

	packet, err := brief.NewPacket(generateTitle, generatePostURL, brief.PacketArticles(articles), time.Now())
	if err != nil {
		return err
	}
	if err := store.Save(cmd.Context(), packet); err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved brief: %s (%s)\n", packet.ID, packet.Title)
	return nil
}

var feedCmd = &cobra.Command{
	Use:   "feed <url>",
	Short: "List candidate stories from an RSS or Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := urlcheck.Validate(args[0]); err != nil {
			return err
		}
		candidates, err := curation.FetchFeed(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if !feedCurate {
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), candidates)
			}
			printCandidates(cmd.OutOrStdout(), candidates)
			return nil
		}

		model := current.curationModel()
		if model == nil {
			return fmt.Errorf("ANTHROPIC_API_KEY is not configured")
		}
		digest, err := curation.NewCurator(model).Curate(cmd.Context(), curation.ModeCurate, candidates)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{fetchCmd, parseCmd, feedCmd} {
		cmd.Flags().BoolVar(&outputJSON, "json", false, "Print JSON")
	}

	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "File with one URL per line")
	generateCmd.Flags().StringVar(&generateFormat, "format", formatHTML, "Output format: html, plaintext, newsletter, newsletter-text, wordpress or json")
	generateCmd.Flags().BoolVar(&generateBrowser, "browser", true, "Use saved sessions for paywalled sites")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Save the brief to the brief store")
	generateCmd.Flags().StringVar(&generateTitle, "title", "", "Title for the saved brief")
	generateCmd.Flags().StringVar(&generatePostURL, "post-url", "", "Post URL linked from newsletter variants")

	feedCmd.Flags().BoolVar(&feedCurate, "curate", false, "Ask the model to pick stories from the feed")
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
