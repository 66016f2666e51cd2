// Package prefill answers the leading questions of a tool's question
// sequence from a stored client profile. Matching is order-preserving
// and stops at the first question it cannot answer, so the user always
// resumes at a contiguous point in the flow.
package prefill

import (
	"fmt"
	"sort"
	"strings"
)

// Question is one step of a tool's question sequence.
type Question struct {
	Label string
	Order int
}

// ClientProfile is the flat record answers are drawn from.
type ClientProfile struct {
	Name     string
	Audience string
	Tone     string
	Language string
	Sample   string
}

// Result describes the longest answerable prefix of the question list.
type Result struct {
	Answers           []string
	MatchedQuestions  []string
	NextQuestionIndex int
	HasPrefilledData  bool
}

type fieldRule struct {
	patterns []string
	value    func(ClientProfile) string
}

// Ordered by priority; the first rule whose pattern set matches a
// question label wins for that question.
var fieldRules = []fieldRule{
	{
		patterns: []string{"target audience", "audience", "who is the audience", "target market"},
		value:    func(p ClientProfile) string { return p.Audience },
	},
	{
		patterns: []string{"tone", "voice", "tone of voice", "writing style", "brand voice"},
		value:    func(p ClientProfile) string { return p.Tone },
	},
	{
		patterns: []string{"language", "what language", "preferred language"},
		value:    func(p ClientProfile) string { return p.Language },
	},
	{
		patterns: []string{"client name", "company name", "brand name", "business name"},
		value:    func(p ClientProfile) string { return p.Name },
	},
	{
		patterns: []string{"sample", "example", "writing sample", "style sample"},
		value:    func(p ClientProfile) string { return p.Sample },
	},
}

// Match computes the longest prefix of questions answerable from the
// profile. A nil profile or empty question list yields an empty result
// with NextQuestionIndex 0. Once a question in sequence has no matching
// rule, or its matched field is blank, no later question is attempted.
func Match(profile *ClientProfile, questions []Question) Result {
	result := Result{Answers: []string{}, MatchedQuestions: []string{}}
	if profile == nil || len(questions) == 0 {
		return result
	}

	ordered := make([]Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	for _, question := range ordered {
		answer, ok := answerFor(*profile, question.Label)
		if !ok {
			break
		}
		result.Answers = append(result.Answers, answer)
		result.MatchedQuestions = append(result.MatchedQuestions, question.Label)
	}

	result.NextQuestionIndex = len(result.Answers)
	result.HasPrefilledData = len(result.Answers) > 0
	return result
}

func answerFor(profile ClientProfile, label string) (string, bool) {
	lowered := strings.ToLower(label)
	for _, rule := range fieldRules {
		if !matchesAny(lowered, rule.patterns) {
			continue
		}
		value := strings.TrimSpace(rule.value(profile))
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

func matchesAny(lowered string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// ComposeMessage renders the note shown when a chat opens with
// prefilled answers. When every question was answered it switches to
// the ready-to-generate variant; with nothing prefilled it returns "".
func ComposeMessage(result Result, totalQuestions int) string {
	if !result.HasPrefilledData {
		return ""
	}

	var b strings.Builder
	if result.NextQuestionIndex >= totalQuestions {
		b.WriteString("I answered every question from your client profile:\n")
	} else {
		b.WriteString("I pre-filled these answers from your client profile:\n")
	}
	for i, question := range result.MatchedQuestions {
		fmt.Fprintf(&b, "- %s %s\n", question, result.Answers[i])
	}
	if result.NextQuestionIndex >= totalQuestions {
		b.WriteString("\nReady to generate whenever you are.")
	} else {
		b.WriteString("\nLet's pick up from the next question.")
	}
	return b.String()
}
