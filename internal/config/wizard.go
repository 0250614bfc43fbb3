package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Wizard provides an interactive configuration wizard.
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard.
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard.
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== Yui Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	fmt.Print("Your name [User]: ")
	name, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if name != "" {
		cfg.UserName = name
	}

	fmt.Println()
	fmt.Println("API Keys (at least one, or pick Ollama below):")
	fmt.Println()

	labels := map[string]string{"groq": "Groq", "anthropic": "Anthropic", "openai": "OpenAI"}
	for _, provider := range []string{"groq", "anthropic", "openai"} {
		for {
			fmt.Printf("%s API Key (press Enter to skip): ", labels[provider])
			key, err := w.readLine()
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			if err := validator.ValidateAPIKey(key, provider); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			switch provider {
			case "groq":
				cfg.APIKeys.Groq = key
			case "anthropic":
				cfg.APIKeys.Anthropic = key
			case "openai":
				cfg.APIKeys.OpenAI = key
			}
			break
		}
	}

	if cfg.ActiveProvider() == "" {
		fmt.Print("No API key given. Use local Ollama instead? (y/n) [y]: ")
		useOllama, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if useOllama == "" || strings.ToLower(useOllama) == "y" {
			cfg.Provider = "ollama"
		} else {
			return nil, fmt.Errorf("at least one provider is required")
		}
	}

	fmt.Println()
	for {
		fmt.Print("Default personality (yui/friday/jarvis) [yui]: ")
		persona, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if persona == "" {
			break
		}
		persona = strings.ToLower(persona)
		if persona != "yui" && persona != "friday" && persona != "jarvis" {
			fmt.Println("Error: unknown personality")
			continue
		}
		cfg.DefaultPersonality = persona
		break
	}

	fmt.Print("Enable semantic memory via Ollama embeddings? (y/n) [n]: ")
	enable, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if strings.ToLower(enable) == "y" {
		cfg.Embedding.Provider = "ollama"
	}

	fmt.Println()
	fmt.Println("Configuration complete.")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
