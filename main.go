package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"social_post_generator/config"
	"social_post_generator/drafts"
	"social_post_generator/generator"
	"social_post_generator/images"
	"social_post_generator/research"
	"social_post_generator/responseparser"
	"social_post_generator/server"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	topic := flag.String("topic", "", "topic to generate posts about")
	date := flag.String("date", "", "anchor date for the posts (YYYY-MM-DD, defaults to today)")
	count := flag.Int("count", 0, "number of posts (defaults to settings posts_per_day)")
	useMock := flag.Bool("mock", false, "use the built-in mock model instead of a real one")
	serve := flag.Bool("serve", false, "start the web API")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	parser := responseparser.New(cfg.ParserConfig(), logger)

	llm, err := buildLLM(cfg, *useMock)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	agent, err := generator.NewAgent(llm, parser, cfg.Generator.MaxRegenerations, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store, err := drafts.NewStore(cfg.DataDir, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var researcher *research.Client
	if cfg.Research != nil && cfg.Research.Enabled {
		researcher = research.New(nil, logger)
	}

	if *serve {
		imgGen := buildImageGenerator(cfg, store, logger)
		srv, err := server.New(agent, store, imgGen, researcher, cfg.Generator, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		logger.WithField("addr", listen).Info("starting web server")
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// One-shot CLI generation.
	if *topic == "" {
		fmt.Fprintln(os.Stderr, "--topic is required (or use --serve)")
		os.Exit(1)
	}

	spec := generator.Spec{
		Topic:       *topic,
		Date:        *date,
		Count:       *count,
		Tone:        cfg.Generator.Tone,
		Audience:    cfg.Generator.Audience,
		Constraints: cfg.Generator.Constraints,
	}
	if spec.Date == "" {
		spec.Date = time.Now().Format("2006-01-02")
	}
	if spec.Count <= 0 {
		settings, err := store.Settings()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		spec.Count = settings.PostsPerDay
	}
	if titles, err := store.PastTitles(15); err == nil {
		spec.PastTitles = titles
	}

	ctx := context.Background()
	if researcher != nil {
		eph, err := researcher.SearchEphemerides(ctx, spec.Date, cfg.Generator.Topics)
		if err == nil {
			spec.Ephemerides = eph
		}
	}

	logger.WithFields(logrus.Fields{"topic": spec.Topic, "date": spec.Date, "count": spec.Count}).
		Info("generating posts")
	batch, err := agent.Generate(ctx, spec, nil, nil, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	jsonPath, err := store.SaveBatch(batch, spec.Date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	csvPath, err := store.ExportCSV(spec.Date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"accepted": batch.Meta.Accepted,
		"seen":     batch.Meta.TotalSeen,
		"attempts": batch.Meta.ParseAttempts,
	}).Info("batch saved")
	for _, r := range batch.Rejections {
		logger.WithFields(logrus.Fields{"index": r.Index, "field": r.Field}).
			Warnf("post dropped: %s", r.Reason)
	}
	fmt.Println(jsonPath)
	fmt.Println(csvPath)
}

func buildLLM(cfg config.Config, useMock bool) (generator.LLMClient, error) {
	if useMock {
		return &generator.MockLLM{}, nil
	}
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; set llm.provider/model in config or pass --mock")
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		})
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible endpoint; base_url is required.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

// buildImageGenerator returns nil when no API key is configured; the server
// then rejects image requests with 501 instead of failing at startup.
func buildImageGenerator(cfg config.Config, store *drafts.Store, logger *logrus.Logger) *images.Generator {
	if cfg.LLM == nil || cfg.LLM.APIKey == "" {
		return nil
	}
	settings := images.Settings{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Dir:     store.ImagesDir(),
	}
	if cfg.Images != nil {
		settings.StylePrefix = cfg.Images.StylePrefix
	}
	gen, err := images.New(settings, logger)
	if err != nil {
		logger.Warnf("image generation disabled: %v", err)
		return nil
	}
	return gen
}
