package agent

import "testing"

func TestRouteToolCallsWinOverContent(t *testing.T) {
	turn := Turn{
		Role:      RoleAssistant,
		Content:   TextContent("END"),
		ToolCalls: []ToolCall{{ID: "1", Name: "post_request"}},
	}
	if got := Route(turn); got != DecisionTools {
		t.Errorf("Route = %s, want %s", got, DecisionTools)
	}
}

func TestRouteCompletion(t *testing.T) {
	cases := []struct {
		name    string
		content Content
		want    Decision
	}{
		{"exact", TextContent("END"), DecisionTerminate},
		{"padded", TextContent(" END "), DecisionTerminate},
		{"trailing dot", TextContent("END."), DecisionContinue},
		{"lowercase", TextContent("end"), DecisionContinue},
		{"prose", TextContent("the answer is 42"), DecisionContinue},
		{"empty", TextContent(""), DecisionContinue},
		{"block exact", BlockContent([]ContentBlock{{Type: "text", Text: "END"}}), DecisionTerminate},
		{"block padded", BlockContent([]ContentBlock{{Type: "text", Text: "\nEND\n"}}), DecisionTerminate},
		{"block prose", BlockContent([]ContentBlock{{Type: "text", Text: "still working"}}), DecisionContinue},
		{"second block ignored", BlockContent([]ContentBlock{{Type: "text", Text: "thinking"}, {Type: "text", Text: "END"}}), DecisionContinue},
		{"no blocks", BlockContent(nil), DecisionContinue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Route(Turn{Role: RoleAssistant, Content: tc.content}); got != tc.want {
				t.Errorf("Route = %s, want %s", got, tc.want)
			}
		})
	}
}
