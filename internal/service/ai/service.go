package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/parla/backend/internal/config"
)

// Apology 生成失败或内容为空时回复给用户的固定文本。
const Apology = "Lo siento, hubo un problema generando la respuesta."

// Service 负责导师与厨师两类回复的生成。
type Service struct {
	chain       compose.Runnable[map[string]any, *schema.Message]
	prompts     *PromptManager
	temperature float32
}

// NewService creates the reply generator. A nil chatModel yields a service that always apologizes.
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig) (*Service, error) {
	svc := &Service{
		prompts:     NewPromptManager(),
		temperature: float32(cfg.Temperature),
	}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// TutorReply 根据是否有错误选择纠错或对话模板，用目标语言回复。
func (s *Service) TutorReply(ctx context.Context, text, language string, hasErrors bool) string {
	kind := TutorKind(hasErrors)
	system, err := s.prompts.Render(kind, map[string]string{"language": language})
	if err != nil {
		log.Printf("[ai] render %s prompt failed: %v", kind, err)
		return Apology
	}
	return s.generate(ctx, kind, system, text)
}

// ChefReply 返回一次性的完整烹饪建议。
func (s *Service) ChefReply(ctx context.Context, text string) string {
	system, err := s.prompts.Render(PromptChef, nil)
	if err != nil {
		log.Printf("[ai] render chef prompt failed: %v", err)
		return Apology
	}
	return s.generate(ctx, PromptChef, system, text)
}

func (s *Service) generate(ctx context.Context, kind PromptKind, system, query string) string {
	if s.chain == nil {
		log.Printf("[ai] chat model not configured, kind=%s", kind)
		return Apology
	}

	input := map[string]any{
		"system": system,
		"query":  query,
	}

	response, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(model.WithTemperature(s.temperature)))
	if err != nil {
		log.Printf("[ai] generation failed, kind=%s: %v", kind, err)
		return Apology
	}

	content := ""
	if response != nil {
		content = strings.TrimSpace(response.Content)
	}
	if content == "" {
		log.Printf("[ai] empty generation, kind=%s", kind)
		return Apology
	}

	log.Printf("[ai] generated reply kind=%s length=%d", kind, len(content))
	return content
}
