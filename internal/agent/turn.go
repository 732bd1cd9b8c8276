package agent

import "encoding/json"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is one typed fragment of block-structured turn content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Content is a tagged union: either a plain string or an ordered list of
// typed blocks, depending on what the model emitted. PrimaryText is the one
// place that flattens the two shapes, so routing and logging never
// type-sniff.
type Content struct {
	text    string
	blocks  []ContentBlock
	blocked bool
}

// TextContent wraps a plain string.
func TextContent(s string) Content {
	return Content{text: s}
}

// BlockContent wraps an ordered block list.
func BlockContent(blocks []ContentBlock) Content {
	return Content{blocks: blocks, blocked: true}
}

// PrimaryText returns the plain string, or the first block's text when the
// content is block-structured.
func (c Content) PrimaryText() string {
	if c.blocked {
		if len(c.blocks) == 0 {
			return ""
		}
		return c.blocks[0].Text
	}
	return c.text
}

// ToolCall is a model-emitted request to invoke a named tool. It is consumed
// exactly once by the control loop, which appends one tool-result turn per
// call.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Turn is one immutable entry in the conversation log.
type Turn struct {
	Role       Role
	Content    Content
	ToolCalls  []ToolCall
	ToolCallID string // set on tool-result turns
	ToolName   string // set on tool-result turns
}

// Conversation is the append-only ordered turn log for one run. The first
// turn is always the seeded user turn carrying the target URL.
type Conversation struct {
	turns []Turn
}

// NewConversation seeds a conversation with the target URL as the opening
// user turn.
func NewConversation(url string) *Conversation {
	return &Conversation{turns: []Turn{{Role: RoleUser, Content: TextContent(url)}}}
}

// Append adds a turn to the end of the log.
func (c *Conversation) Append(turn Turn) {
	c.turns = append(c.turns, turn)
}

// Turns returns the ordered log. Callers must not mutate the returned slice.
func (c *Conversation) Turns() []Turn {
	return c.turns
}

// Last returns the most recent turn.
func (c *Conversation) Last() Turn {
	return c.turns[len(c.turns)-1]
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}
