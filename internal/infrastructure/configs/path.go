package configs

import (
	"flag"
	"os"

	"github.com/xenitV1/owl-chat/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag, the
// OWLCHAT_CONFIG env var, or a list of conventional locations. An empty
// return means defaults and env overrides only.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("OWLCHAT_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/owl-chat/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
