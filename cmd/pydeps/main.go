package main

import (
	"github.com/joho/godotenv"

	"github.com/mvp-joe/pydeps/internal/cli"
)

func main() {
	// A missing .env is normal; PYDEPS_* may come from the real environment.
	_ = godotenv.Load()

	cli.Execute()
}
