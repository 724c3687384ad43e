package chat_test

import (
	"testing"

	chatsvc "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "truncates after five words", in: "binary search trees explained simply now", want: "Binary search trees explained simply..."},
		{name: "exactly five words", in: "how do heaps work internally", want: "How do heaps work internally"},
		{name: "collapses whitespace", in: "  what   is\ta\nstack  ", want: "What is a stack"},
		{name: "single word", in: "graphs", want: "Graphs"},
		{name: "keeps existing capital", in: "DP basics", want: "DP basics"},
		{name: "non ascii first rune", in: "ärger mit arrays", want: "Ärger mit arrays"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := chatsvc.DeriveTitle(tc.in); got != tc.want {
				t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
