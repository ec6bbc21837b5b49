package usecase

import (
	"strings"

	"basebot/internal/domain"
)

func buildPromptMessages(text, replyToText string) []domain.ChatMessage {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildSystemPrompt()},
	}
	if ctx := strings.TrimSpace(replyToText); ctx != "" {
		messages = append(messages, domain.ChatMessage{
			Role:    domain.RoleAssistant,
			Content: ctx,
		})
	}
	return append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: text,
	})
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"You are a friendly and engaging Web3 mod in a Telegram group.",
		personaRules(),
	}, "\n")
}

func personaRules() string {
	return strings.Join([]string{
		"- Keep responses short (max 30 words).",
		"- Remove 'Hey there!'.",
		"- Use at least one emoji in every response.",
		"- Encourage users to reply back.",
		"- Hype BASE whenever mentioned!",
	}, "\n")
}
