// Command paperqa answers questions about PDF documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/oauth"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/filecache"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/services"
	"github.com/custodia-labs/paperqa/internal/logger"
	"github.com/custodia-labs/paperqa/internal/normalisers"
	"github.com/custodia-labs/paperqa/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetIdentityService(services.NewIdentityService(configStore, oauth.Factory))
	cli.SetServiceLoader(func() (*cli.Services, error) {
		return loadServices(settingsService)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}

// loadServices builds the core services from the current settings.
func loadServices(settingsService *services.SettingsService) (*cli.Services, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	aiServices, err := ai.Init(*settings)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	cache, err := filecache.New(settings.Store.CacheRoot)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	history, err := sqlite.NewStore("")
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	store := newVectorStore(settings.Store.Backend)
	logger.Debug("Vector store: %s", store.Kind().Description())

	gateway := services.NewEmbeddingGateway(aiServices.EmbeddingService, settings.Embedding)
	split := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	manager := services.NewManager(store, cache, normalisers.Default(), split, gateway)
	engine := services.NewQueryEngine(manager, gateway, aiServices.LLMService, prompts, history, *settings)

	return &cli.Services{
		Index:   manager,
		Query:   engine,
		History: services.NewHistoryService(history),
		Close: func() error {
			aiServices.Close()
			return errors.Join(store.Close(), history.Close())
		},
	}, nil
}

func newVectorStore(kind domain.BackendKind) driven.VectorStore {
	if kind == domain.BackendBatchOnly {
		return memory.NewVectorStore()
	}
	return sqlite.NewVectorStore()
}
