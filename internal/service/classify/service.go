package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// UnknownLanguage 语言检测没有结构化结果时的返回值。
const UnknownLanguage = "unknown"

const (
	languageToolName = "classify_language"
	errorsToolName   = "evaluate_errors"
)

var errNoToolCall = errors.New("model returned no tool call")

// ModelFactory 每次调用返回一个新的模型实例。BindTools 会修改实例，
// 两个分类器各自持有一个，互不影响，也不影响回复生成用的模型。
type ModelFactory func(ctx context.Context) (model.ChatModel, error)

// Service 通过函数调用让大模型给出结构化的语言与错误判断，失败时回退到默认值。
type Service struct {
	detector  compose.Runnable[map[string]any, *schema.Message]
	evaluator compose.Runnable[map[string]any, *schema.Message]
}

// NewService 创建分类服务。newModel 为 nil 时服务仍可用，所有调用直接返回回退值。
func NewService(ctx context.Context, newModel ModelFactory) (*Service, error) {
	svc := &Service{}
	if newModel == nil {
		return svc, nil
	}

	detector, err := compileToolChain(ctx, newModel, languageTool, languageSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile language detector chain: %w", err)
	}

	evaluator, err := compileToolChain(ctx, newModel, errorsTool, errorsSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile error evaluator chain: %w", err)
	}

	svc.detector = detector
	svc.evaluator = evaluator
	return svc, nil
}

func compileToolChain(ctx context.Context, newModel ModelFactory, tool *schema.ToolInfo, system string) (compose.Runnable[map[string]any, *schema.Message], error) {
	chatModel, err := newModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create model for tool %s: %w", tool.Name, err)
	}
	if err := chatModel.BindTools([]*schema.ToolInfo{tool}); err != nil {
		return nil, fmt.Errorf("bind tool %s: %w", tool.Name, err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// forcedToolCall 要求模型必须调用已绑定的工具。
func forcedToolCall() compose.Option {
	return compose.WithChatModelOption(model.WithToolChoice(schema.ToolChoiceForced))
}

// DetectLanguage 返回文本的主要语言名称；无法得到结构化结果时返回 "unknown"。
func (s *Service) DetectLanguage(ctx context.Context, text string) string {
	if s == nil || s.detector == nil {
		log.Printf("[classify] language detector disabled, use fallback")
		return UnknownLanguage
	}

	msg, err := s.detector.Invoke(ctx, map[string]any{"text": text}, forcedToolCall())
	if err != nil {
		log.Printf("[classify] language detection failed, use fallback: %v", err)
		return UnknownLanguage
	}

	var args struct {
		Language string `json:"language"`
	}
	if err := decodeToolArguments(msg, languageToolName, &args); err != nil {
		log.Printf("[classify] language detection output unusable, use fallback: %v", err)
		return UnknownLanguage
	}

	language := strings.TrimSpace(args.Language)
	if language == "" {
		return UnknownLanguage
	}
	return language
}

// EvaluateErrors 判断文本是否有值得纠正的错误，温度固定为 0。
func (s *Service) EvaluateErrors(ctx context.Context, text, language string) Evaluation {
	fallback := Evaluation{HasErrors: false, Severity: SeverityNone}
	if s == nil || s.evaluator == nil {
		log.Printf("[classify] error evaluator disabled, use fallback")
		return fallback
	}

	input := map[string]any{
		"text":     text,
		"language": language,
	}
	msg, err := s.evaluator.Invoke(ctx, input,
		forcedToolCall(),
		compose.WithChatModelOption(model.WithTemperature(0)),
	)
	if err != nil {
		log.Printf("[classify] error evaluation failed, use fallback: %v", err)
		return fallback
	}

	var args struct {
		HasErrors bool   `json:"has_errors"`
		Severity  string `json:"severity"`
	}
	if err := decodeToolArguments(msg, errorsToolName, &args); err != nil {
		log.Printf("[classify] error evaluation output unusable, use fallback: %v", err)
		return fallback
	}

	return Evaluation{
		HasErrors: args.HasErrors,
		Severity:  ParseSeverity(args.Severity),
	}
}

// decodeToolArguments 只看第一个工具调用。
func decodeToolArguments(msg *schema.Message, name string, out any) error {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return errNoToolCall
	}

	call := msg.ToolCalls[0]
	if call.Function.Name != "" && call.Function.Name != name {
		return fmt.Errorf("unexpected tool call %q", call.Function.Name)
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), out); err != nil {
		return fmt.Errorf("parse tool arguments: %w", err)
	}
	return nil
}
