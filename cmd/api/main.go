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

	"github.com/joho/godotenv"

	"github.com/yunxiao/lessonforge/backend/internal/config"
	"github.com/yunxiao/lessonforge/backend/internal/handler"
	"github.com/yunxiao/lessonforge/backend/internal/handler/stream"
	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	"github.com/yunxiao/lessonforge/backend/internal/service/artifact"
	"github.com/yunxiao/lessonforge/backend/internal/service/chat"
	"github.com/yunxiao/lessonforge/backend/internal/service/convert"
	"github.com/yunxiao/lessonforge/backend/internal/team"
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

	profileStore := lesson.NewMemoryStore(lesson.Seed())
	chatService := chat.NewService()
	converter := convert.NewService(cfg.Convert)
	writer := artifact.NewWriter(cfg.Output)

	var streamHandler *stream.Handler
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without AI functionality - 请检查 Ark 模型相关环境变量")
		} else {
			teams, err := team.NewRegistry(ctx, chatModel, cfg.Team.MaxMessages)
			if err != nil {
				log.Fatalf("failed to build agent teams: %v", err)
			}
			uploadTimeout := time.Duration(cfg.Convert.TimeoutSeconds) * time.Second
			streamHandler = stream.New(teams, chatService, writer, uploadTimeout)
			log.Println("agent teams initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，跳过 AI 功能初始化")
	}

	router := handler.NewRouter(profileStore, chatService, converter, streamHandler)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("LessonForge backend listening on %s", addr)
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
