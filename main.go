package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"relay-bridge/cmd"
)

func main() {
	// A .env file is optional; real config can come from the environment
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
