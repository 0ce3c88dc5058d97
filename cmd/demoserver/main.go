// Command demoserver starts a stand-in AskPablos proxy backend for local
// development. It verifies client signatures and fetches targets on their
// behalf, so the client library can be exercised end to end without the
// production service.
//
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999. Credentials default to demo-api-key / demo-secret-key
// and can be overridden with ASKPABLOS_API_KEY / ASKPABLOS_SECRET_KEY.
// Set ASKPABLOS_DEMO_BROWSER=1 to enable chromedp rendering (needs Chrome).
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	askpablos "github.com/fawadss1/askpablos-api"
	"github.com/fawadss1/askpablos-api/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	if key := os.Getenv("ASKPABLOS_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if secret := os.Getenv("ASKPABLOS_SECRET_KEY"); secret != "" {
		cfg.SecretKey = secret
	}
	cfg.AllowBrowser = os.Getenv("ASKPABLOS_DEMO_BROWSER") == "1"

	logger, err := askpablos.ConfigureLogging("info", "console")
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	cfg.Logger = logger

	fmt.Println("===========================================")
	fmt.Println("   AskPablos Demo Proxy Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Endpoint:      http://localhost:%d/v1/proxy\n", cfg.Port)
	fmt.Printf("API key:       %s\n", cfg.APIKey)
	fmt.Printf("Browser:       %v\n", cfg.AllowBrowser)
	fmt.Println()
	fmt.Println("Point a client at it with:")
	fmt.Printf("  askpablos.New(apiKey, secretKey, askpablos.WithAPIURL(\"http://localhost:%d/v1/proxy\"))\n", cfg.Port)
	fmt.Println()

	server, err := demoserver.NewDemoServer(cfg)
	if err != nil {
		log.Fatalf("Server setup error: %v", err)
	}
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
