package timeline

import (
	"sort"

	"github.com/google/uuid"

	"subpulse/internal/subtitle"
)

// TokenKind classifies the smallest units of dialogue text.
type TokenKind string

const (
	// TokenContent carries standalone meaning (nouns, verb roots, adjectives).
	TokenContent TokenKind = "content"
	// TokenGrammar is structural (particles, conjugation markers, auxiliaries).
	TokenGrammar TokenKind = "grammar"
	// TokenPunctuation is literal punctuation.
	TokenPunctuation TokenKind = "punctuation"
)

// GroupUnaligned is the sentinel group for tokens that have not been through
// enrichment yet. Group 0 means "no highlight partner"; positive groups link
// equivalent concepts across the source and target token arrays.
const GroupUnaligned = -1

// Token is one tagged unit of dialogue text.
type Token struct {
	Text         string    `json:"text"`
	Romanization string    `json:"romanization,omitempty"`
	BaseForm     string    `json:"base_form,omitempty"`
	Kind         TokenKind `json:"kind"`
	GroupID      int       `json:"group_id"`
}

// DialogueNode is one subtitle/utterance event on the video timeline.
type DialogueNode struct {
	ID           string   `json:"id"`
	Start        float64  `json:"start"`
	End          float64  `json:"end"`
	Speaker      string   `json:"speaker"`
	SourceTokens []Token  `json:"source_tokens"`
	TargetTokens []Token  `json:"target_tokens"`
	Notes        []string `json:"notes,omitempty"`
}

// VideoAnalysis is one episode's complete processed transcript.
type VideoAnalysis struct {
	VideoID string         `json:"video_id"`
	Title   string         `json:"title"`
	Nodes   []DialogueNode `json:"nodes"`
}

// DefaultSpeaker is used when the subtitle format carries no speaker info.
const DefaultSpeaker = "Subtitle"

// FromCues converts parsed subtitle cues into dialogue nodes sorted by start
// time. Each node starts with a single unaligned content token holding the
// full cue text; enrichment replaces both token arrays later.
func FromCues(cues []subtitle.Cue) []DialogueNode {
	nodes := make([]DialogueNode, 0, len(cues))
	for _, cue := range cues {
		nodes = append(nodes, DialogueNode{
			ID:      uuid.NewString(),
			Start:   cue.Start,
			End:     cue.End,
			Speaker: DefaultSpeaker,
			SourceTokens: []Token{{
				Text:    cue.Text,
				Kind:    TokenContent,
				GroupID: GroupUnaligned,
			}},
		})
	}
	SortByStart(nodes)
	return nodes
}

// SortByStart orders nodes by start time, stably so equal timestamps keep
// their relative order.
func SortByStart(nodes []DialogueNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Start < nodes[j].Start
	})
}

// Shift applies a single global offset to every node's timestamps in place.
// It is applied exactly once per ingestion, after offset estimation.
func Shift(nodes []DialogueNode, offsetSeconds float64) {
	if offsetSeconds == 0 {
		return
	}
	for i := range nodes {
		nodes[i].Start += offsetSeconds
		nodes[i].End += offsetSeconds
	}
}

// Text returns the plain source text of a node, joining token surfaces.
func (n DialogueNode) Text() string {
	if len(n.SourceTokens) == 0 {
		return ""
	}
	if len(n.SourceTokens) == 1 {
		return n.SourceTokens[0].Text
	}
	text := ""
	for _, token := range n.SourceTokens {
		text += token.Text
	}
	return text
}
