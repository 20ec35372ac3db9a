package generator

import (
	"strings"

	"go.uber.org/zap"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Messages flattens the prompt into the ordered sequence sent to a provider:
// system, history in caller order, then the final user message.
func (p Prompt) Messages() []Message {
	msgs := make([]Message, 0, len(p.History)+2)
	if p.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: p.System})
	}
	msgs = append(msgs, p.History...)
	return append(msgs, Message{Role: RoleUser, Content: p.User})
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
	RoleTool      = "tool"
	RoleDeveloper = "developer"
)

var validRoles = map[string]bool{
	RoleSystem:    true,
	RoleUser:      true,
	RoleAssistant: true,
	RoleFunction:  true,
	RoleTool:      true,
	RoleDeveloper: true,
}

// normalizeHistory keeps caller order, maps "ai" to assistant and drops
// entries without a usable role.
func normalizeHistory(history []Message, logger *zap.Logger) []Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]Message, 0, len(history))
	for i, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		switch {
		case role == "":
			continue
		case role == "ai":
			role = RoleAssistant
		case !validRoles[role]:
			logger.Warn("dropping history message with invalid role",
				zap.Int("index", i), zap.String("role", m.Role))
			continue
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	return out
}
