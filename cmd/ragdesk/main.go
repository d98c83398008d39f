package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/ragdesk"
	"github.com/flarexio/ragdesk/chunker"
	"github.com/flarexio/ragdesk/corpus"
	"github.com/flarexio/ragdesk/embedding"
	"github.com/flarexio/ragdesk/llm"
	"github.com/flarexio/ragdesk/llm/openai"
	"github.com/flarexio/ragdesk/persistence/chromem"

	mcpE "github.com/flarexio/ragdesk/mcp"
	httpT "github.com/flarexio/ragdesk/transport/http"
	natsT "github.com/flarexio/ragdesk/transport/nats"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "ragdesk",
		Usage: "Retrieval-augmented support desk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the ragdesk home",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the knowledge base over NATS and HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "nats",
						Usage:   "NATS server URL, empty to disable",
						Value:   nats.DefaultURL,
						Sources: cli.EnvVars("NATS_URL"),
					},
					&cli.StringFlag{
						Name:  "instance",
						Usage: "Instance ID used in NATS topics",
					},
					&cli.BoolFlag{
						Name:  "http",
						Usage: "Enable HTTP transport",
						Value: false,
					},
					&cli.StringFlag{
						Name:  "http-addr",
						Usage: "HTTP server address",
						Value: ":8080",
					},
				},
				Action: serve,
			},
			{
				Name:   "build",
				Usage:  "Rebuild the knowledge base index",
				Action: build,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    ask,
			},
			{
				Name:   "chat",
				Usage:  "Ask questions interactively",
				Action: chat,
			},
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func homePath(cmd *cli.Command) (string, error) {
	path := cmd.String("path")
	if path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".flarex", "ragdesk"), nil
}

func loadConfig(path string) (ragdesk.Config, error) {
	var cfg ragdesk.Config

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only

	case err != nil:
		return cfg, err

	default:
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Corpus.Dir == "" {
		cfg.Corpus.Dir = filepath.Join(path, "documents")
	}

	if cfg.Vector.Path == "" {
		cfg.Vector.Path = filepath.Join(path, "vectors")
		cfg.Vector.Persistent = true
	}

	if cfg.LLM.Primary == nil {
		primary := openai.GroqConfig()
		cfg.LLM.Primary = &primary
	}

	if cfg.LLM.Secondary == nil {
		secondary := openai.GeminiConfig()
		cfg.LLM.Secondary = &secondary
	}

	return cfg, nil
}

func newProvider(cfg *llm.ProviderConfig, log *zap.Logger) (llm.Provider, error) {
	if cfg == nil {
		return nil, nil
	}

	p, err := openai.NewProvider(*cfg)
	if err != nil {
		if errors.Is(err, llm.ErrProviderNotConfigured) {
			log.Warn("provider not configured",
				zap.String("model", cfg.Model),
				zap.String("api_key_env", cfg.APIKeyEnv),
			)

			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

type app struct {
	log  *zap.Logger
	path string
	svc  ragdesk.Service
}

func setup(ctx context.Context, cmd *cli.Command, opts ...ragdesk.ServiceOption) (*app, error) {
	path, err := homePath(cmd)
	if err != nil {
		return nil, err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)

	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	c, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}

	embed, err := embedding.NewFunc(cfg.Vector.Embedding)
	if err != nil {
		return nil, err
	}

	db, err := chromem.NewChromemVectorDB(cfg.Vector)
	if err != nil {
		return nil, err
	}

	index := ragdesk.NewIndex(db, embed, corpus.NewBuilder(c), ragdesk.IndexConfig{
		Collection:  cfg.Vector.Collection,
		ModelID:     embedding.ModelID(cfg.Vector.Embedding),
		Concurrency: cfg.Vector.Concurrency,
	})

	primary, err := newProvider(cfg.LLM.Primary, log)
	if err != nil {
		return nil, err
	}

	secondary, err := newProvider(cfg.LLM.Secondary, log)
	if err != nil {
		return nil, err
	}

	generator := llm.NewGenerator(primary, secondary,
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithPromptTemplate(cfg.LLM.PromptTemplate),
	)

	svc, err := ragdesk.NewService(ctx, cfg, index, generator, opts...)
	if err != nil {
		return nil, err
	}

	svc = ragdesk.InstrumentingMiddleware()(svc)
	svc = ragdesk.LoggingMiddleware(log)(svc)

	return &app{
		log:  log,
		path: path,
		svc:  svc,
	}, nil
}

func (a *app) Close() {
	a.svc.Close()
	a.log.Sync()
}

func instanceID(cmd *cli.Command, path string) string {
	if id := cmd.String("instance"); id != "" {
		return id
	}

	idBytes, err := os.ReadFile(filepath.Join(path, "id"))
	if err == nil {
		if id := strings.TrimSpace(string(idBytes)); id != "" {
			return id
		}
	}

	return "default"
}

func serve(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	endpoints := ragdesk.MakeEndpoints(a.svc)

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		instance := instanceID(cmd, a.path)

		opts := []nats.Option{
			nats.Name("Ragdesk Server - " + instance),
		}

		natsCreds := filepath.Join(a.path, "user.creds")
		if _, err := os.Stat(natsCreds); err == nil {
			opts = append(opts, nats.UserCredentials(natsCreds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "ragdesk",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		topic := "ragdesk." + instance

		root := srv.AddGroup(topic)
		natsT.AddEndpoints(root, endpoints)

		log.Info("nats transport ready", zap.String("topic", topic))
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints)
		httpT.AddStreamableRouters(r, mcpE.MakeEndpoints(a.svc))

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd, ragdesk.WithLazyLoad())
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.svc.Rebuild(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %d chunks into %s\n", stats.Chunks, stats.Collection)
	return nil
}

func ask(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return ragdesk.ErrEmptyQuery
	}

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.svc.AnswerQuery(ctx, query)
	if err != nil {
		return err
	}

	printResponse(resp)
	return nil
}

func chat(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		resp, err := a.svc.AnswerQuery(ctx, query)
		if err != nil {
			fmt.Println("error:", err.Error())
			continue
		}

		printResponse(resp)
	}
}

func printResponse(resp ragdesk.QueryResponse) {
	fmt.Println(resp.Answer.Text)

	if resp.Answer.Available() {
		fmt.Printf("\n(answered by %s via %s)\n", resp.Answer.Provider, resp.Answer.Source)
	}

	for _, reason := range resp.Answer.Reasons {
		fmt.Println("  !", reason)
	}

	if resp.NoResults() {
		return
	}

	fmt.Println("\nSources:")
	for _, chunk := range resp.Retrieved.Chunks {
		fmt.Printf("  - %s #%d (%.3f)\n", chunk.SourceID, chunk.SequenceIndex, chunk.Score)
	}
}
