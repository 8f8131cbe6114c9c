package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"wikiqa/internal/assistant"
	"wikiqa/internal/config"
	"wikiqa/internal/confluence"
	"wikiqa/internal/llm"
	"wikiqa/internal/logging"
	"wikiqa/internal/session/filestore"
	"wikiqa/internal/token"
	"wikiqa/internal/webui"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Color definitions for CLI output
var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func Errorf(msg string) string {
	return red("✗ " + msg)
}

func Successf(msg string) string {
	return green("✓ " + msg)
}

func Statusf(msg string) string {
	return blue(msg)
}

// CLI holds the command line interface state
type CLI struct {
	cfg      config.Config
	renderer *MarkdownRenderer
	verbose  bool
	plain    bool
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "wikiqa",
		Short: "Ask questions about Confluence wiki pages",
		Long: fmt.Sprintf(`%s

wikiqa loads a Confluence wiki page, strips it down to plain text, and
answers questions about it through a hosted completion model. Answers
come strictly from the loaded page content.

%s
  wikiqa page 12345                       # Fetch and preview a page
  wikiqa ask 12345 "how do I deploy?"     # One-shot question
  wikiqa chat 12345                       # Interactive conversation
  wikiqa search "deployment runbook"      # Find pages by text
  wikiqa serve                            # Run the browser UI
  cat notes.txt | wikiqa tokens           # Count tokens`,
			bold("wikiqa "+Version),
			bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug logging")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Completion model")
	rootCmd.PersistentFlags().Int("context-tokens", 0, "Token budget for page context")
	rootCmd.PersistentFlags().Bool("plain", false, "Plain output without colors or markdown styling")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.wikiqa")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("WIKIQA")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("context_tokens", rootCmd.PersistentFlags().Lookup("context-tokens"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newPageCommand(cli))
	rootCmd.AddCommand(newAskCommand(cli))
	rootCmd.AddCommand(newChatCommand(cli))
	rootCmd.AddCommand(newSearchCommand(cli))
	rootCmd.AddCommand(newTokensCommand())
	rootCmd.AddCommand(newConfigCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// initialize loads .env, the config file, and environment settings, then
// overlays any viper-bound flags.
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil && cli.verbose {
		fmt.Fprintln(os.Stderr, gray("no .env loaded: "+err.Error()))
	}

	if err := viper.ReadInConfig(); err == nil && cli.verbose {
		fmt.Fprintln(os.Stderr, gray("using config "+viper.ConfigFileUsed()))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if model := viper.GetString("model"); model != "" {
		cfg.Model = model
	}
	if budget := viper.GetInt("context_tokens"); budget > 0 {
		cfg.ContextTokens = budget
	}
	if viper.GetBool("debug") {
		cfg.Debug = true
	}

	cli.cfg = cfg
	cli.plain, _ = cmd.Flags().GetBool("plain")
	if !isTTY() {
		cli.plain = true
	}
	if cli.plain {
		color.NoColor = true
	}

	renderer, err := NewMarkdownRenderer(cli.plain)
	if err != nil {
		return err
	}
	cli.renderer = renderer
	return nil
}

func (cli *CLI) logger(component string) logging.Logger {
	if cli.cfg.Debug || cli.verbose {
		return logging.NewComponentLogger(component)
	}
	return logging.Nop()
}

func (cli *CLI) wikiClient() (*confluence.Client, error) {
	return confluence.New(confluence.Config{
		BaseURL:  cli.cfg.ConfluenceURL,
		Email:    cli.cfg.ConfluenceEmail,
		APIToken: cli.cfg.ConfluenceAPIToken,
	}, confluence.WithLogger(cli.logger("Confluence")))
}

// buildOrchestrator wires the full assistant stack for ask/chat/serve.
func (cli *CLI) buildOrchestrator() (*assistant.Orchestrator, error) {
	wiki, err := cli.wikiClient()
	if err != nil {
		return nil, err
	}
	completions, err := llm.NewOpenAIClient(cli.cfg.Model, llm.Config{
		APIKey:  cli.cfg.OpenAIAPIKey,
		BaseURL: cli.cfg.OpenAIBaseURL,
		Logger:  cli.logger("LLM"),
	})
	if err != nil {
		return nil, err
	}
	answerer := assistant.NewAnswerer(completions, cli.cfg.ContextTokens, cli.logger("Assistant"))
	return assistant.NewOrchestrator(wiki, answerer, cli.logger("Assistant")), nil
}

func newServeCommand(cli *CLI) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			if host != "" {
				cli.cfg.Host = host
			}
			if port > 0 {
				cli.cfg.Port = port
			}

			wiki, err := cli.wikiClient()
			if err != nil {
				return err
			}
			completions, err := llm.NewOpenAIClient(cli.cfg.Model, llm.Config{
				APIKey:  cli.cfg.OpenAIAPIKey,
				BaseURL: cli.cfg.OpenAIBaseURL,
				Logger:  cli.logger("LLM"),
			})
			if err != nil {
				return err
			}
			factory := func() *assistant.Orchestrator {
				answerer := assistant.NewAnswerer(completions, cli.cfg.ContextTokens, cli.logger("Assistant"))
				return assistant.NewOrchestrator(wiki, answerer, cli.logger("Assistant"))
			}

			serverCfg := webui.DefaultServerConfig()
			serverCfg.Host = cli.cfg.Host
			serverCfg.Port = cli.cfg.Port
			serverCfg.Debug = cli.cfg.Debug

			server, err := webui.NewServer(factory, serverCfg, cli.logger("Web"))
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()
			fmt.Println(Statusf(fmt.Sprintf("listening on http://%s:%d/ui", cli.cfg.Host, cli.cfg.Port)))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Stop(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Bind port (default from config)")
	return cmd
}

func newPageCommand(cli *CLI) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "page <page-id>",
		Short: "Fetch a wiki page and show its normalized text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			wiki, err := cli.wikiClient()
			if err != nil {
				return err
			}

			page, err := wiki.FetchPage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("page %s could not be loaded", args[0])
			}

			fmt.Println(bold(page.Title))
			fmt.Println(gray(page.URL))
			if crumbs := page.Breadcrumbs(); len(crumbs) > 0 {
				fmt.Println(gray("in: " + strings.Join(crumbs, " > ")))
			}
			fmt.Printf("%s %s  %s v%d  %s %d chars, %d tokens\n",
				cyan("space:"), page.Space,
				yellow("version:"), page.Version,
				cyan("size:"), len(page.Content), token.Count(page.Content))
			if len(page.Labels) > 0 {
				fmt.Println(gray("labels: " + strings.Join(page.Labels, ", ")))
			}
			fmt.Println()

			content := page.Content
			if runes := []rune(content); !full && len(runes) > 2000 {
				content = string(runes[:2000]) + "…"
			}
			fmt.Println(content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print the whole page text")
	return cmd
}

func newAskCommand(cli *CLI) *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "ask <page-id> <question...>",
		Short: "Ask one question about a wiki page",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			orch, err := cli.buildOrchestrator()
			if err != nil {
				return err
			}

			page, err := orch.LoadPage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("page %s could not be loaded", args[0])
			}
			if cli.verbose {
				fmt.Fprintln(os.Stderr, gray(fmt.Sprintf("loaded %q (%d tokens)", page.Title, token.Count(page.Content))))
			}

			question := strings.Join(args[1:], " ")
			answer, err := orch.Ask(cmd.Context(), question)
			if err != nil {
				return err
			}
			fmt.Print(cli.renderer.Render(answer))

			if export {
				return cli.exportTranscript(orch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "Save the transcript as JSON")
	return cmd
}

func newChatCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <page-id>",
		Short: "Interactive conversation about a wiki page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			orch, err := cli.buildOrchestrator()
			if err != nil {
				return err
			}

			page, err := orch.LoadPage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("page %s could not be loaded", args[0])
			}

			fmt.Println(Successf(fmt.Sprintf("loaded %q (%s)", page.Title, page.Space)))
			fmt.Println(gray("ask anything about the page; /load <id>, /clear, /export, /quit"))
			return cli.chatLoop(cmd.Context(), orch)
		},
	}
}

// chatLoop reads questions from stdin until EOF or /quit.
func (cli *CLI) chatLoop(ctx context.Context, orch *assistant.Orchestrator) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print(bold("> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/clear":
			orch.ClearConversation()
			fmt.Println(Successf("conversation cleared"))
			continue
		case line == "/export":
			if err := cli.exportTranscript(orch); err != nil {
				fmt.Println(Errorf(err.Error()))
			}
			continue
		case strings.HasPrefix(line, "/load "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/load "))
			page, err := orch.LoadPage(ctx, id)
			if err != nil {
				fmt.Println(Errorf(fmt.Sprintf("page %s could not be loaded", id)))
				continue
			}
			fmt.Println(Successf(fmt.Sprintf("loaded %q (%s)", page.Title, page.Space)))
			continue
		}

		answer, err := orch.Ask(ctx, line)
		if err != nil {
			fmt.Println(Errorf(err.Error()))
			continue
		}
		fmt.Print(cli.renderer.Render(answer))
	}
}

func (cli *CLI) exportTranscript(orch *assistant.Orchestrator) error {
	store, err := filestore.New(cli.cfg.ExportDir, cli.logger("Export"))
	if err != nil {
		return err
	}
	path, err := store.Export(orch.Conversation())
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(gray("nothing to export"))
		return nil
	}
	fmt.Println(Successf("transcript saved to " + path))
	return nil
}

func newSearchCommand(cli *CLI) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search wiki pages by text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			wiki, err := cli.wikiClient()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			results, err := wiki.SearchPages(cmd.Context(), query, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(results) == 0 {
				fmt.Println(gray("no pages matched"))
				return nil
			}

			for _, r := range results {
				fmt.Printf("%s  %s %s\n", cyan(r.ID), r.Title, gray("("+r.Space+")"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results")
	return cmd
}

func newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [text...]",
		Short: "Count completion tokens in text (stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 {
				text = strings.Join(args, " ")
			} else {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = string(raw)
			}
			fmt.Println(token.Count(text))
			return nil
		},
	}
}

func newConfigCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(cmd); err != nil {
				return err
			}
			cfg := cli.cfg
			fmt.Println(bold("Confluence"))
			fmt.Printf("  url:    %s\n", valueOrUnset(cfg.ConfluenceURL))
			fmt.Printf("  email:  %s\n", valueOrUnset(cfg.ConfluenceEmail))
			fmt.Printf("  token:  %s\n", maskSecret(cfg.ConfluenceAPIToken))
			fmt.Println(bold("Completions"))
			fmt.Printf("  model:          %s\n", cfg.Model)
			fmt.Printf("  api key:        %s\n", maskSecret(cfg.OpenAIAPIKey))
			fmt.Printf("  base url:       %s\n", valueOrUnset(cfg.OpenAIBaseURL))
			fmt.Printf("  temperature:    %.2f\n", cfg.Temperature)
			fmt.Printf("  context tokens: %d\n", cfg.ContextTokens)
			fmt.Println(bold("Server"))
			fmt.Printf("  listen: %s:%d\n", cfg.Host, cfg.Port)
			fmt.Printf("  debug:  %v\n", cfg.Debug)
			return nil
		},
	})

	return cmd
}

func valueOrUnset(v string) string {
	if v == "" {
		return gray("(unset)")
	}
	return v
}

func maskSecret(v string) string {
	if v == "" {
		return gray("(unset)")
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "…" + v[len(v)-4:]
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("wikiqa " + Version)
		},
	}
}
