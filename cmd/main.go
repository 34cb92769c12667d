package main

import (
	"os"

	"github.com/RobertYoung/quizmaster/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
