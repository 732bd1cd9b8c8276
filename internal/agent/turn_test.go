package agent

import "testing"

func TestPrimaryText(t *testing.T) {
	if got := TextContent("hello").PrimaryText(); got != "hello" {
		t.Errorf("text variant = %q", got)
	}
	blocks := BlockContent([]ContentBlock{{Type: "text", Text: "first"}, {Type: "text", Text: "second"}})
	if got := blocks.PrimaryText(); got != "first" {
		t.Errorf("block variant = %q, want first", got)
	}
	if got := BlockContent(nil).PrimaryText(); got != "" {
		t.Errorf("empty block variant = %q, want empty", got)
	}
}

func TestNewConversationSeed(t *testing.T) {
	conv := NewConversation("https://quiz.example/start")
	if conv.Len() != 1 {
		t.Fatalf("seed length = %d, want 1", conv.Len())
	}
	seed := conv.Last()
	if seed.Role != RoleUser {
		t.Errorf("seed role = %s, want user", seed.Role)
	}
	if seed.Content.PrimaryText() != "https://quiz.example/start" {
		t.Errorf("seed content = %q", seed.Content.PrimaryText())
	}
}

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation("u")
	conv.Append(Turn{Role: RoleAssistant, Content: TextContent("a")})
	conv.Append(Turn{Role: RoleTool, Content: TextContent("t")})
	turns := conv.Turns()
	if len(turns) != 3 || turns[1].Role != RoleAssistant || turns[2].Role != RoleTool {
		t.Errorf("unexpected turn order: %+v", turns)
	}
}
