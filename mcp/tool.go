// Package mcp exposes the image gateway as MCP (Model Context Protocol) tools.
//
// Assistants that speak MCP, such as Claude Desktop, can discover and call:
//
//   - generate_image: generate an image from a prompt, optionally targeting a provider
//   - list_providers: report which providers are registered and configured
//
// # Serving
//
//	c, err := client.New(client.Config{APIKeys: keys})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mcp.ServeStdio(c); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/prompt"
)

const (
	GenerateImageTool = "generate_image"
	ListProvidersTool = "list_providers"
)

var generateImageSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"prompt": {"type": "string", "description": "Description of the image to generate"},
		"provider": {"type": "string", "description": "Provider to use: huggingface, openai, stability, google, deepai, firefly, midjourney, or all (default) to try each in order"},
		"size": {"type": "string", "description": "Image size, e.g. 1024x1024, 1792x1024, 1024x1792"},
		"quality": {"type": "string", "enum": ["standard", "hd", "4k"], "description": "Image quality"},
		"style": {"type": "string", "description": "Prompt style such as anime, photographic, digital-art, oil-painting, watercolor; or vivid/natural render style"},
		"type": {"type": "string", "enum": ["general", "avatar"], "description": "Image type"}
	},
	"required": ["prompt"]
}`)

var emptySchema = json.RawMessage(`{"type": "object", "properties": {}}`)

func generateImageTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(GenerateImageTool,
		"Generate an image from a text prompt. Returns the image URL or data URI.",
		generateImageSchema)
}

func listProvidersTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(ListProvidersTool,
		"List image providers and whether each is configured.",
		emptySchema)
}

// GenerateArgs are the arguments of the generate_image tool.
type GenerateArgs struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider"`
	Size     string `json:"size"`
	Quality  string `json:"quality"`
	Style    string `json:"style"`
	Type     string `json:"type"`
}

type tools struct {
	gen    Generator
	logger *slog.Logger
}

func (t *tools) generateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args GenerateArgs
	if err := decodeArguments(req.Params.Arguments, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hint := imagegate.ProviderName(strings.ToLower(strings.TrimSpace(args.Provider)))
	enhanced, opts := prompt.Prepare(args.Prompt, hint, prompt.Options{
		Style:   args.Style,
		Quality: imagegate.ImageQuality(strings.ToLower(args.Quality)),
		Type:    prompt.Type(strings.ToLower(args.Type)),
		Size:    imagegate.ImageSize(args.Size),
	})

	logger := log.FromContextOrDiscard(ctx)
	res, err := t.gen.Generate(ctx, enhanced, hint, opts...)
	if err != nil {
		logger.Warn("image generation failed", "provider", hint, "kind", imagegate.KindOf(err), "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", imagegate.KindOf(err), err)), nil
	}

	logger.Info("image generated", "provider", res.Provider, "model", res.Model)
	return mcp.NewToolResultText(res.URL), nil
}

func (t *tools) listProviders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(t.gen.Providers())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal providers: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeArguments converts the loosely typed tool arguments into v.
func decodeArguments(raw any, v any) error {
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
