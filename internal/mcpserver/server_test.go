package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/tempus/internal/noteservice"
	"github.com/starford/tempus/internal/storage"
	"github.com/starford/tempus/internal/testutil"
	"github.com/starford/tempus/internal/timestamps"
)

var start = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, storage.Provider, *testutil.Clock) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	clock := testutil.NewClock(start)
	svc := noteservice.NewService(store, db, testutil.TestClass(t, clock))
	return New(svc, "test"), store, clock
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "touch_note":
		result, err = srv.touchNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	text := resultText(r)
	if text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"path": "test.md",
	})
	text = resultText(r)
	if !strings.Contains(text, `created: "2025-01-15T10:00:00Z"`) || !strings.HasSuffix(text, "# Test\nHello") {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateNote_Duplicate(t *testing.T) {
	srv, _, _ := testServer(t)
	args := map[string]interface{}{"path": "dup.md", "content": "x"}
	callTool(t, srv, "create_note", args)
	r := callTool(t, srv, "create_note", args)
	if !r.IsError || !strings.Contains(resultText(r), "already exists") {
		t.Errorf("duplicate create = %+v", r)
	}
}

func TestTouchNote(t *testing.T) {
	srv, store, clock := testServer(t)
	_ = store.Write("t.md", []byte("# Plain\n"))

	clock.Advance(time.Hour)
	r := callTool(t, srv, "touch_note", map[string]interface{}{"path": "t.md"})
	if r.IsError {
		t.Fatalf("touch failed: %s", resultText(r))
	}
	var stamps timestamps.Stamps
	if err := json.Unmarshal([]byte(resultText(r)), &stamps); err != nil {
		t.Fatalf("decode stamps: %v", err)
	}
	want := start.Add(time.Hour)
	if stamps.Updated == nil || !stamps.Updated.Equal(want) {
		t.Errorf("updated = %v, want %v", stamps.Updated, want)
	}
	if stamps.Created == nil || !stamps.Created.Equal(want) {
		t.Errorf("created = %v, want %v", stamps.Created, want)
	}

	r = callTool(t, srv, "touch_note", map[string]interface{}{"path": "missing.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, _, clock := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"path": "a.md", "content": "a"})
	clock.Advance(time.Minute)
	callTool(t, srv, "create_note", map[string]interface{}{"path": "b.md", "content": "b"})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	var resp struct {
		Notes []noteservice.NoteListItem `json:"notes"`
		Total int                        `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if resp.Total != 2 || resp.Notes[0].Path != "b.md" {
		t.Errorf("list = %+v", resp)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"sort": "bogus"})
	if !r.IsError {
		t.Error("expected error for unknown sort")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "a.md",
		"content": "links to [[b]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "b"})
	text := resultText(r)
	if text != "a.md" {
		t.Errorf("backlinks = %q, want a.md", text)
	}
}

func TestNoteContractMentionsTimestamps(t *testing.T) {
	srv, _, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_note_contract", nil))
	for _, key := range []string{"created:", "modified:"} {
		if !strings.Contains(text, key) {
			t.Errorf("contract missing %s", key)
		}
	}
}
