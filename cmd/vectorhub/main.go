package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wordflowlab/vectorhub"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			log.Fatalf("vectorhub serve failed: %v", err)
		}
	case "token":
		if err := runToken(os.Args[2:]); err != nil {
			log.Fatalf("vectorhub token failed: %v", err)
		}
	case "version":
		fmt.Println(vectorhub.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  vectorhub serve [flags]")
	fmt.Println("  vectorhub token [flags]")
	fmt.Println("  vectorhub version")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  serve    Start the HTTP API server")
	fmt.Println("  token    Issue a JWT for the configured auth.jwt settings")
	fmt.Println("  version  Print the version")
	fmt.Println()
	fmt.Println("Use 'vectorhub <subcommand> -h' for subcommand-specific flags.")
}
