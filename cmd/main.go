package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codelab-edu/grader/internal/config"
	"github.com/codelab-edu/grader/internal/grader"
	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/internal/queue"
	"github.com/codelab-edu/grader/internal/sandbox"
	"github.com/codelab-edu/grader/internal/server"
	"github.com/codelab-edu/grader/pkg/constants"
	customErr "github.com/codelab-edu/grader/pkg/errors"
)

func main() {
	logger.InitializeLogger()

	log := logger.NewNamedLogger("main")
	log.Info("Starting grading engine")

	cfg := config.NewConfig()

	sb, err := newSandbox(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize sandbox backend: %s", err)
	}

	engine := grader.NewEngine(sb, grader.Options{
		MaxWorkers: cfg.MaxWorkers,
		QueueWait:  time.Duration(cfg.QueueWaitMs) * time.Millisecond,
		Limits: sandbox.Limits{
			Timeout:     time.Duration(cfg.TestTimeoutMs) * time.Millisecond,
			MemoryMB:    cfg.MemoryLimitMB,
			MaxOutputKB: cfg.MaxOutputKB,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := server.NewServer(cfg.ServerPort, engine)
	serverErr := httpServer.Start()

	if cfg.RabbitMQEnabled {
		conn, channel, err := queue.Connect(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %s", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Errorf("Failed to close RabbitMQ connection: %s", err)
			}
		}()

		responder := queue.NewResponder(channel, cfg.ResponseQueueName)
		consumer := queue.NewConsumer(channel, cfg.GradeQueueName, engine, responder)
		go consumer.Listen(ctx)
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down grading engine")
	case err := <-serverErr:
		log.Errorf("HTTP server failed: %s", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %s", err)
	}

	log.Info("Grading engine stopped")
}

func newSandbox(cfg *config.Config) (sandbox.Sandbox, error) {
	switch cfg.SandboxBackend {
	case constants.SandboxBackendProcess:
		return sandbox.NewNodeSandbox(cfg.NodeBin, cfg.RunRootDir)
	case constants.SandboxBackendDocker:
		cli, err := sandbox.NewDockerClient()
		if err != nil {
			return nil, err
		}
		return sandbox.NewDockerSandbox(cli, cfg.RuntimeImage, cfg.RunRootDir)
	default:
		return nil, customErr.ErrUnknownSandboxBackend
	}
}
