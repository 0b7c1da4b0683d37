// Command mcp serves the image gateway as MCP tools over stdio.
//
// API keys are read from the environment (a .env file is loaded if present):
// HUGGINGFACE_API_KEY, OPENAI_API_KEY, STABILITY_API_KEY, GOOGLE_API_KEY,
// DEEPAI_API_KEY, ADOBE_API_KEY with ADOBE_ACCESS_TOKEN, MIDJOURNEY_API_KEY and
// MIDJOURNEY_BASE_URL. Logs go to stderr because
// stdout carries the protocol.
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "imagegate": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/imagegate"
//	        }
//	    }
//	}
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/imagegate/client"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/mcp"
)

func main() {
	godotenv.Load() // Load .env file if present

	logger := log.New(os.Stderr, log.ParseLevel(os.Getenv("IMAGEGATE_LOG_LEVEL")), false)

	c, err := client.New(client.Config{
		APIKeys: client.APIKeys{
			HuggingFace:  os.Getenv("HUGGINGFACE_API_KEY"),
			OpenAI:       os.Getenv("OPENAI_API_KEY"),
			Stability:    os.Getenv("STABILITY_API_KEY"),
			Google:       os.Getenv("GOOGLE_API_KEY"),
			DeepAI:       os.Getenv("DEEPAI_API_KEY"),
			Firefly:      os.Getenv("ADOBE_API_KEY"),
			FireflyToken: os.Getenv("ADOBE_ACCESS_TOKEN"),
			Midjourney:   os.Getenv("MIDJOURNEY_API_KEY"),
		},
		BaseURLs: client.BaseURLs{
			Midjourney: os.Getenv("MIDJOURNEY_BASE_URL"),
		},
	})
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	if !c.Configured() {
		logger.Warn("no provider API keys set; generate_image will fail")
	}

	if err := mcp.ServeStdio(c,
		mcp.WithName("imagegate"),
		mcp.WithVersion("1.0.0"),
		mcp.WithLogger(logger),
	); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
