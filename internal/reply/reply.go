// Package reply decides which comments deserve an automatic response and
// posts it.
package reply

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeQuestion   Type = "question"
	TypeCompliment Type = "compliment"
	TypeGeneral    Type = "general"
)

var complimentWords = []string{
	"love", "great", "awesome", "amazing", "beautiful",
	"excellent", "fantastic", "wonderful", "perfect", "incredible",
}

var questionStarters = []string{
	"who", "what", "when", "where", "why", "how",
	"can", "could", "would", "will", "is", "are", "do", "does",
}

// ClassifyType buckets a comment for template selection. Question wins over
// compliment when a comment is both ("Great, but why is it late?").
func ClassifyType(message string) Type {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return TypeGeneral
	}
	if strings.Contains(text, "?") {
		return TypeQuestion
	}
	first := strings.Trim(strings.Fields(text)[0], ".,!\"'")
	for _, s := range questionStarters {
		if first == s {
			return TypeQuestion
		}
	}
	for _, w := range complimentWords {
		if containsWord(text, w) {
			return TypeCompliment
		}
	}
	return TypeGeneral
}

func containsWord(text, word string) bool {
	for _, f := range strings.Fields(text) {
		if strings.Trim(f, ".,!?;:'\"()") == word {
			return true
		}
	}
	return false
}

// BuildReply renders the fixed template for a reply type. Templates are
// deliberately static so every run is reviewable and reproducible.
func BuildReply(t Type, authorName string) string {
	name := strings.TrimSpace(authorName)
	if name == "" {
		name = "there"
	}
	switch t {
	case TypeQuestion:
		return fmt.Sprintf("Hi %s, thanks for asking! We'll get back to you with an answer shortly.", name)
	case TypeCompliment:
		return fmt.Sprintf("Thank you so much, %s! We really appreciate the kind words.", name)
	default:
		return fmt.Sprintf("Thanks for your comment, %s! We appreciate you being part of the conversation.", name)
	}
}
