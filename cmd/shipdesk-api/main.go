package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	app, err := bootstrap(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("bootstrap failed: %v", err))
	}
	defer app.Close()

	if err := app.Run(); err != nil && err != context.Canceled {
		panic(err)
	}
}
