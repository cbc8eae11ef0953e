package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"careerplan/generator"
	"careerplan/markdown"
	"careerplan/publisher"
	"careerplan/server"
	"careerplan/store"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	mdPath := flag.String("md", "", "path to markdown plan")
	title := flag.String("title", "", "plan title (defaults to the first header)")
	format := flag.String("format", publisher.FormatHTML, "export format: md, txt or html")
	lang := flag.String("lang", "", "plan language, e.g. en or he")
	out := flag.String("out", "", "output path (stdout when empty)")
	dump := flag.Bool("dump", false, "print the parsed block tree instead of exporting")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	if verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(1, nil)
	}

	// Web server mode
	if *serve {
		cfg, err := publisher.LoadConfig(*configPath)
		if err != nil {
			fail(err)
		}
		if err := runServer(cfg, *addr); err != nil {
			fail(err)
		}
		return
	}

	if *mdPath == "" {
		fail(fmt.Errorf("--md is required"))
	}

	if *dump {
		data, err := os.ReadFile(*mdPath)
		if err != nil {
			fail(err)
		}
		pp.Println(markdown.Parse(string(data)))
		return
	}

	cfg, err := loadOptionalConfig(*configPath)
	if err != nil {
		fail(err)
	}
	p, err := publisher.New(cfg, verbose, log.Default())
	if err != nil {
		fail(err)
	}
	params := publisher.PublishParams{
		MarkdownPath: *mdPath,
		Title:        *title,
		Format:       *format,
		Language:     *lang,
		OutPath:      *out,
	}

	log.Printf("[cli] exporting md=%s format=%s", params.MarkdownPath, params.Format)
	exp, err := p.PublishFile(context.Background(), params)
	if err != nil {
		fail(err)
	}
	if params.OutPath == "" {
		os.Stdout.Write(exp.Body)
		return
	}
	log.Printf("[cli] wrote %s (%s)", params.OutPath, humanize.Bytes(uint64(len(exp.Body))))
}

func runServer(cfg publisher.Config, addr string) error {
	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	pub, err := publisher.New(cfg, verbose, log.Default())
	if err != nil {
		return err
	}
	srv, err := server.New(agent, st, pub)
	if err != nil {
		return err
	}

	listen := cfg.ServerAddr
	if addr != "" {
		listen = addr
	}
	backend := "memory"
	if cfg.DBPath != "" {
		backend = cfg.DBPath
	}
	log.Printf("Starting web server on %s (store=%s engine=%s)", listen, backend, pub.Engine())
	return http.ListenAndServe(listen, srv.Routes())
}

// loadOptionalConfig lets the export path run without a config file.
func loadOptionalConfig(path string) (publisher.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return publisher.Config{}, nil
	}
	return publisher.LoadConfig(path)
}

func buildLLM(cfg publisher.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	switch cfg.LLM.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings(cfg.LLM))
	case "deepseek":
		// OpenAI-compatible endpoint; base_url is mandatory.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings(cfg.LLM))
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func settings(c *publisher.LLMConfig) *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
