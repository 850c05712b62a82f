package cmd

import (
	"log/slog"

	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/llm"
	"github.com/dukex/dailygate/pkg/registry"
	"github.com/dukex/dailygate/pkg/workflows/poem"
	"github.com/dukex/dailygate/pkg/workflows/textanalyzer"
)

// NewRegistry builds the workflow registry with the native workflows
// registered. Registration failures are configuration bugs and panic.
func NewRegistry(settings config.LLMSettings, logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	llmClient := llm.NewHTTPClient(settings)

	if err := reg.Register(poem.NewHandler(llmClient, logger)); err != nil {
		panic(err)
	}

	if err := reg.Register(textanalyzer.NewHandler(logger)); err != nil {
		panic(err)
	}

	return reg
}
