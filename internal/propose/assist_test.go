package propose_test

import (
	"testing"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/cairnhq/cairn/internal/propose"
)

func TestAssistantModel(t *testing.T) {
	t.Run("reads model name from client config", func(t *testing.T) {
		cfg := gaconfig.AgentConfig{
			Name: "cairn-assist",
			Client: &gaconfig.ClientConfig{
				Provider: &gaconfig.ProviderConfig{
					Name:    "ollama",
					BaseURL: "http://localhost:11434",
					Model:   &gaconfig.ModelConfig{Name: "llama3.1:8b"},
				},
			},
		}

		a := propose.NewAssistant(cfg, nil, 10*time.Second, testLogger())
		if got := a.Model(); got != "llama3.1:8b" {
			t.Errorf("Model() = %q, want llama3.1:8b", got)
		}
	})

	t.Run("empty when client tree is unset", func(t *testing.T) {
		a := propose.NewAssistant(gaconfig.AgentConfig{Name: "bare"}, nil, 0, testLogger())
		if got := a.Model(); got != "" {
			t.Errorf("Model() = %q, want empty", got)
		}
	})
}
