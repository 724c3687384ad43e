package topic

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
)

// Key names one canned explanation.
type Key string

const (
	Array Key = "array"
	Tree  Key = "tree"
	Graph Key = "graph"
	DP    Key = "dp"
	Stack Key = "stack"
	Queue Key = "queue"
	Hash  Key = "hash"
)

// defaultMessage stands in for the user's text when the history has no user message.
const defaultMessage = "Hello"

// exactMatchMaxWords bounds how long a message may be to resolve through a topic key directly.
const exactMatchMaxWords = 5

type topicAnswer struct {
	key    Key
	answer string
}

type relatedTerm struct {
	term string
	key  Key
}

// topics is scanned in declaration order: when a short message names several topic keys,
// the earliest entry wins.
var topics = []topicAnswer{
	{Array, arrayAnswer},
	{Tree, treeAnswer},
	{Graph, graphAnswer},
	{DP, dpAnswer},
	{Stack, stackAnswer},
	{Queue, queueAnswer},
	{Hash, hashAnswer},
}

// relatedTerms maps sub-concepts onto a topic and is also scanned in declaration order.
var relatedTerms = []relatedTerm{
	{"sort", Array},
	{"search", Array},
	{"linked", Array},
	{"two pointer", Array},
	{"sliding window", Array},
	{"binary", Tree},
	{"bst", Tree},
	{"traversal", Tree},
	{"heap", Tree},
	{"trie", Tree},
	{"bfs", Graph},
	{"dfs", Graph},
	{"dijkstra", Graph},
	{"topological", Graph},
	{"shortest path", Graph},
	{"memo", DP},
	{"tabulation", DP},
	{"knapsack", DP},
	{"dynamic programming", DP},
	{"subsequence", DP},
	{"lifo", Stack},
	{"parenthes", Stack},
	{"fifo", Queue},
	{"deque", Queue},
	{"hashing", Hash},
	{"dictionary", Hash},
	{"collision", Hash},
}

// Select picks a canned tutoring answer for the latest user message in history.
// It never fails; with no recognizable topic it returns a generic answer quoting the message.
func Select(history []chat.Message) string {
	message := lastUserText(history)
	if key, ok := resolve(message); ok {
		return answerFor(key)
	}
	return genericAnswer(message)
}

// resolve maps a message onto a topic. Short messages naming a topic key match first;
// otherwise the related-term table decides.
func resolve(message string) (Key, bool) {
	normalized := strings.ToLower(message)

	if len(strings.Fields(normalized)) <= exactMatchMaxWords {
		for _, t := range topics {
			if strings.Contains(normalized, string(t.key)) {
				return t.key, true
			}
		}
	}

	for _, rt := range relatedTerms {
		if strings.Contains(normalized, rt.term) {
			return rt.key, true
		}
	}
	return "", false
}

func lastUserText(history []chat.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == chat.SenderUser {
			return history[i].Text
		}
	}
	return defaultMessage
}

func answerFor(key Key) string {
	for _, t := range topics {
		if t.key == key {
			return t.answer
		}
	}
	return genericAnswer(string(key))
}

func genericAnswer(message string) string {
	return fmt.Sprintf(genericAnswerTemplate, message)
}
