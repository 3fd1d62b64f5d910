// Package main is the entry point for the pulse service.
package main

import (
	"log"
	"os"
)

var (
	// version can be set at build time via -ldflags
	version = "dev"
)

func main() {
	// Get command from args, default to "both" (api + worker)
	command := "both"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "both", "all":
		run(commandBoth)
	case "api":
		run(commandAPI)
	case "worker":
		run(commandWorker)
	case "version":
		log.Printf("Pulse version %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	default:
		log.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	log.Println("Pulse - News Pipeline Service")
	log.Println()
	log.Println("Usage:")
	log.Println("  pulse [command]")
	log.Println()
	log.Println("Commands:")
	log.Println("  both       Start the HTTP API server and the job worker (default)")
	log.Println("  api        Start the HTTP API server only")
	log.Println("  worker     Start the job worker only")
	log.Println("  version    Print version information")
	log.Println("  help       Show this help message")
	log.Println()
	log.Println("Environment Variables:")
	log.Println("  PULSE_CONFIG          - Config file path (default: config.yaml)")
	log.Println("  PULSE_PORT            - HTTP port override")
	log.Println("  APP_DEBUG             - Enable debug logging")
	log.Println()
	log.Println("  Database:")
	log.Println("    POSTGRES_HOST       - PostgreSQL host")
	log.Println("    POSTGRES_PORT       - PostgreSQL port (default: 5432)")
	log.Println("    POSTGRES_USER       - PostgreSQL user")
	log.Println("    POSTGRES_PASSWORD   - PostgreSQL password")
	log.Println("    POSTGRES_DB         - PostgreSQL database")
	log.Println("    REDIS_ADDR          - Redis address")
	log.Println("    REDIS_PASSWORD      - Redis password (optional)")
	log.Println()
	log.Println("  External APIs:")
	log.Println("    GOOGLE_API_KEY, GOOGLE_SEARCH_ENGINE_ID - Custom Search")
	log.Println("    NEWSAPI_KEY                             - NewsAPI feed")
	log.Println("    ANTHROPIC_API_KEY                       - Summarization")
	log.Println("    X_BEARER_TOKEN                          - Posting")
	log.Println("    MOCK_SOURCES, MOCK_LLM, MOCK_POSTS      - Offline development")
}
