package main

import (
	"log"
	"os"

	"github.com/korjavin/quizbot/cli"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting quizbot...")

	if err := cli.Execute(); err != nil {
		log.Fatalf("quizbot: %v", err)
	}
}
