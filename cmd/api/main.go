package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/parla/backend/internal/config"
	"github.com/zhouzirui/parla/backend/internal/handler"
	"github.com/zhouzirui/parla/backend/internal/model/persona"
	"github.com/zhouzirui/parla/backend/internal/service/ai"
	"github.com/zhouzirui/parla/backend/internal/service/classify"
	"github.com/zhouzirui/parla/backend/internal/service/relay"
	"github.com/zhouzirui/parla/backend/internal/service/session"
	"github.com/zhouzirui/parla/backend/internal/service/speech"
	"github.com/zhouzirui/parla/backend/internal/service/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	for _, warning := range cfg.Warnings() {
		log.Printf("⚠️ %s", warning)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	sessionStore, closeSessions := newSessionStore(ctx, cfg.Session)
	defer closeSessions()

	// 模型缺失时服务照常启动，分类回退到默认值，生成返回道歉文本
	var (
		generatorModel model.BaseChatModel
		classifyModels classify.ModelFactory
	)
	if cfg.AI.Enabled() {
		// 回复生成单独持有一个不绑定工具的实例
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
		} else {
			generatorModel = chatModel
			classifyModels = cfg.AI.NewChatModel
			log.Printf("chat model initialized: %s", cfg.AI.Model)
		}
	}

	classifier, err := classify.NewService(ctx, classifyModels)
	if err != nil {
		log.Fatalf("failed to initialize classifier: %v", err)
	}

	generator, err := ai.NewService(ctx, generatorModel, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize reply generator: %v", err)
	}

	transcriber, err := speech.NewTranscriber(cfg.Transcribe)
	if err != nil {
		log.Fatalf("failed to initialize transcriber: %v", err)
	}
	log.Printf("transcription provider: %s", cfg.Transcribe.Provider)

	waClient := whatsapp.NewClient(whatsapp.Config{
		GraphURL:   cfg.WhatsApp.GraphURL,
		APIVersion: cfg.WhatsApp.APIVersion,
		PhoneID:    cfg.WhatsApp.PhoneID,
		Token:      cfg.WhatsApp.Token,
		Timeout:    cfg.WhatsApp.Timeout,
	})

	pipeline := relay.NewPipeline(relay.Dependencies{
		Resolver:   relay.NewResolver(waClient, transcriber),
		Router:     relay.NewRouter(personaStore, sessionStore),
		Classifier: classifier,
		Generator:  generator,
		Sender:     waClient,
	})

	router := handler.NewRouter(personaStore, cfg.WhatsApp.VerifyToken, pipeline)

	startServer(ctx, cfg.Server, router)
}

// newSessionStore 配置了 SESSION_REDIS_URL 时使用 Redis，连接失败则退回内存存储。
func newSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, func()) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(), func() {}
	}

	store, rdb, err := session.Dial(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("warning: %v", err)
		log.Println("continuing with in-memory session store")
		return session.NewMemoryStore(), func() {}
	}

	log.Println("Connected to Redis session store")
	return store, func() { _ = rdb.Close() }
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Parla webhook relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
