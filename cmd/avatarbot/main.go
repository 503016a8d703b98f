// Command avatarbot runs the DiceBear avatar Telegram bot.
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/avatarbot/core/cmd"
	"github.com/m3rciful/avatarbot/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("avatarbot: %v", err)
	}
}
