// Package mcpserver exposes the persisted item set over MCP. All tools are
// read-only: the pipeline is the sole writer.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"lotwatch/internal/logging"
	"lotwatch/internal/store"
)

// Server wraps the MCP SDK server around a store.
type Server struct {
	MCPServer *sdkmcp.Server
	store     store.Store
	log       *slog.Logger
}

// NewServer creates the server and registers its tools over st.
func NewServer(st store.Store, version string) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "lotwatch", Version: version},
			nil,
		),
		store: st,
		log:   logging.New("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_items",
		Description: "List tracked market items in sequence order, optionally limited.",
	}, s.handleListItems)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_item",
		Description: "Look up one tracked item by its exact name.",
	}, s.handleGetItem)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "store_status",
		Description: "Report the item count and highest sequence id in the store.",
	}, s.handleStoreStatus)
}

// --- Tool input/output types ---

type itemView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Qty    int    `json:"qty"`
	Price  string `json:"price"`
	SalesW int    `json:"sales_w"`
	SalesM int    `json:"sales_m"`
	SalesY int    `json:"sales_y"`
}

func viewOf(it store.Item) itemView {
	return itemView{
		ID:     it.Seq,
		Name:   it.Name,
		URL:    it.URL,
		Qty:    it.Qty,
		Price:  it.Price,
		SalesW: it.SalesW,
		SalesM: it.SalesM,
		SalesY: it.SalesY,
	}
}

type listItemsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum items to return (0 = all)"`
}

type listItemsOutput struct {
	Items []itemView `json:"items"`
	Total int        `json:"total"`
}

type getItemInput struct {
	Name string `json:"name" jsonschema:"exact item name"`
}

type getItemOutput struct {
	Found bool      `json:"found"`
	Item  *itemView `json:"item,omitempty"`
}

type storeStatusInput struct{}

type storeStatusOutput struct {
	Items  int   `json:"items"`
	MaxSeq int64 `json:"max_seq"`
}

// --- Tool handlers ---

func (s *Server) handleListItems(_ context.Context, _ *sdkmcp.CallToolRequest, input listItemsInput) (*sdkmcp.CallToolResult, listItemsOutput, error) {
	if input.Limit < 0 {
		return nil, listItemsOutput{}, fmt.Errorf("limit must not be negative")
	}
	items, err := s.store.List(input.Limit)
	if err != nil {
		return nil, listItemsOutput{}, fmt.Errorf("list_items: %w", err)
	}
	total, err := s.store.Count()
	if err != nil {
		return nil, listItemsOutput{}, fmt.Errorf("list_items: %w", err)
	}

	out := listItemsOutput{Items: make([]itemView, 0, len(items)), Total: total}
	for _, it := range items {
		out.Items = append(out.Items, viewOf(it))
	}
	return nil, out, nil
}

func (s *Server) handleGetItem(_ context.Context, _ *sdkmcp.CallToolRequest, input getItemInput) (*sdkmcp.CallToolResult, getItemOutput, error) {
	if input.Name == "" {
		return nil, getItemOutput{}, fmt.Errorf("name is required")
	}
	it, err := s.store.Get(input.Name)
	if err != nil {
		return nil, getItemOutput{}, fmt.Errorf("get_item: %w", err)
	}
	if it == nil {
		return nil, getItemOutput{Found: false}, nil
	}
	v := viewOf(*it)
	return nil, getItemOutput{Found: true, Item: &v}, nil
}

func (s *Server) handleStoreStatus(_ context.Context, _ *sdkmcp.CallToolRequest, _ storeStatusInput) (*sdkmcp.CallToolResult, storeStatusOutput, error) {
	n, err := s.store.Count()
	if err != nil {
		return nil, storeStatusOutput{}, fmt.Errorf("store_status: %w", err)
	}
	maxSeq, err := s.store.MaxSeq()
	if err != nil {
		return nil, storeStatusOutput{}, fmt.Errorf("store_status: %w", err)
	}
	return nil, storeStatusOutput{Items: n, MaxSeq: maxSeq}, nil
}
