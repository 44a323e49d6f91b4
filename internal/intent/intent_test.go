package intent_test

import (
	"testing"

	"echo/internal/config"
	"echo/internal/intent"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	c := intent.NewClassifier(config.Default().Intents)

	tests := []struct {
		in   string
		want string
	}{
		{"play some jazz music", "media_control"},
		{"random nonsense", "ai_chat"},
		{"What TIME is it", "time_date"},
		{"tell me about go", "information"},
		{"open firefox", "system_control"},
		{"will it rain, what's the forecast", "weather"},
		// "today" is a time_date keyword and time_date precedes information.
		{"what is happening today", "time_date"},
		// "play" wins over "volume" by table order.
		{"play it louder, volume up", "media_control"},
		{"", "ai_chat"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := c.Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify_CustomTable(t *testing.T) {
	t.Parallel()

	c := intent.NewClassifier([]config.Intent{
		{Tag: "b", Keywords: []string{"shared"}},
		{Tag: "a", Keywords: []string{"shared", "only-a"}},
	})
	if got := c.Classify("a shared word"); got != "b" {
		t.Errorf("first row should win, got %q", got)
	}
	if got := c.Classify("only-a"); got != "a" {
		t.Errorf("got %q, want a", got)
	}
}
