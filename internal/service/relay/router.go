package relay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/parla/backend/internal/model/persona"
	"github.com/zhouzirui/parla/backend/internal/service/session"
)

const unknownCommandReply = "Comando no reconocido. Usa /menu"

// Router 处理模式切换命令，并记录每个发送者当前的助手模式。
type Router struct {
	personas persona.Store
	sessions session.Store
}

// NewRouter creates a router over the persona catalogue and the session store.
func NewRouter(personas persona.Store, sessions session.Store) *Router {
	return &Router{personas: personas, sessions: sessions}
}

// IsCommand reports whether text should be handled as a command.
func IsCommand(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "/") || strings.EqualFold(trimmed, "menu")
}

func isMenu(normalized string) bool {
	return normalized == "/menu" || normalized == "menu"
}

// HandleCommand 返回命令的回复文本。只有切换命令会写入 session。
func (r *Router) HandleCommand(ctx context.Context, sender, text string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if isMenu(normalized) {
		return r.MenuText(), nil
	}

	p, ok := r.personas.FindByCommand(normalized)
	if !ok {
		return unknownCommandReply, nil
	}

	if err := r.sessions.Set(ctx, sender, p.ID); err != nil {
		return "", fmt.Errorf("switch sender %s to %s: %w", sender, p.ID, err)
	}
	log.Printf("[relay] sender=%s switched to mode=%s", sender, p.ID)
	return "Modo cambiado a " + p.Label(), nil
}

// Mode 返回发送者当前模式，未知发送者或存储出错时使用默认模式。
func (r *Router) Mode(ctx context.Context, sender string) persona.Mode {
	mode, ok, err := r.sessions.Get(ctx, sender)
	if err != nil {
		log.Printf("[relay] load mode for sender=%s failed, use default: %v", sender, err)
		return persona.DefaultMode
	}
	if !ok {
		return persona.DefaultMode
	}
	return mode
}

// MenuText lists each persona's primary command.
func (r *Router) MenuText() string {
	var builder strings.Builder
	builder.WriteString("🧠 *Menú de asistentes*")
	for _, p := range r.personas.List() {
		if len(p.Commands) == 0 {
			continue
		}
		builder.WriteString("\n- ")
		builder.WriteString(p.Commands[0])
		builder.WriteString(" → ")
		builder.WriteString(p.Description)
	}
	return builder.String()
}
