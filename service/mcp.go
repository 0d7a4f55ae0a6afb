package service

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/softbox-mx/captura/extractor"
	"github.com/softbox-mx/captura/generator"
	"github.com/softbox-mx/captura/loader"
	"github.com/softbox-mx/captura/splitter"
)

// Version of the MCP surface.
const Version = "1.0.0"

// StageInput is the shared input schema: every tool takes one filename
// inside its stage's storage area.
type StageInput struct {
	Filename string `json:"filename" jsonschema:"name of the file in the stage's storage area"`
}

// MCPServer exposes the four pipeline stages as MCP tools, so an agent
// can drive the pipeline the same way the HTTP surface does.
func (s *Service) MCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "captura",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_split",
		Description: "Split a PDF from the files area into per-page documents",
	}, s.toolSplit)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_extract",
		Description: "Extract structured chunks from one page document into a chunk table",
	}, s.toolExtract)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_generate",
		Description: "Generate the invoice table from one page's chunk table",
	}, s.toolGenerate)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_insert",
		Description: "Insert one generated invoice table into PostgreSQL",
	}, s.toolInsert)
	return server
}

// RunMCP serves the tools over stdio until ctx is cancelled.
func (s *Service) RunMCP(ctx context.Context) error {
	return s.MCPServer().Run(ctx, &mcp.StdioTransport{})
}

func (s *Service) toolSplit(ctx context.Context, _ *mcp.CallToolRequest, in StageInput) (*mcp.CallToolResult, splitter.Result, error) {
	res, err := s.split.Split(ctx, in.Filename)
	if err != nil {
		return nil, splitter.Result{}, err
	}
	return nil, *res, nil
}

func (s *Service) toolExtract(ctx context.Context, _ *mcp.CallToolRequest, in StageInput) (*mcp.CallToolResult, extractor.Result, error) {
	res, err := s.extract.Extract(ctx, in.Filename)
	if err != nil {
		return nil, extractor.Result{}, err
	}
	return nil, *res, nil
}

func (s *Service) toolGenerate(ctx context.Context, _ *mcp.CallToolRequest, in StageInput) (*mcp.CallToolResult, generator.Result, error) {
	res, err := s.generate.Generate(ctx, in.Filename)
	if err != nil {
		return nil, generator.Result{}, err
	}
	return nil, *res, nil
}

func (s *Service) toolInsert(ctx context.Context, _ *mcp.CallToolRequest, in StageInput) (*mcp.CallToolResult, loader.Result, error) {
	res, err := s.insert.Load(ctx, in.Filename)
	if err != nil {
		return nil, loader.Result{}, err
	}
	return nil, *res, nil
}
