package domain

import "strings"

// AdCopy is the structured creative produced by the text model. It lives only
// for the duration of one pipeline run; the soft length limits in the prompt
// are guidance for the model, not enforced invariants.
type AdCopy struct {
	Headline         string `json:"headline"`
	Subheadline      string `json:"subheadline"`
	CTA              string `json:"cta"`
	BodyText         string `json:"bodyText"`
	ColorScheme      string `json:"colorScheme"`
	Mood             string `json:"mood"`
	TargetAudience   string `json:"targetAudience"`
	ImagePrompt      string `json:"imagePrompt"`
	VideoDescription string `json:"videoDescription"`
}

// Complete reports whether the copy carries the fields the downstream stages
// depend on. Everything else may legally be empty.
func (c *AdCopy) Complete() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.Headline) != "" &&
		strings.TrimSpace(c.ImagePrompt) != "" &&
		strings.TrimSpace(c.VideoDescription) != ""
}
