package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/zhouzirui/parla/backend/internal/model/message"
	"github.com/zhouzirui/parla/backend/internal/model/persona"
	"github.com/zhouzirui/parla/backend/internal/service/classify"
)

// TextResolver 把入站消息解析为文本。
type TextResolver interface {
	Resolve(ctx context.Context, msg message.IncomingMessage) (string, error)
}

// Classifier 提供语言检测与错误评估，失败时自行回退，不返回错误。
type Classifier interface {
	DetectLanguage(ctx context.Context, text string) string
	EvaluateErrors(ctx context.Context, text, language string) classify.Evaluation
}

// Generator 生成各模式的回复，失败时返回固定的道歉文本。
type Generator interface {
	TutorReply(ctx context.Context, text, language string, hasErrors bool) string
	ChefReply(ctx context.Context, text string) string
}

// MessageSender 向用户发送文本消息。
type MessageSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Dependencies 汇总流水线依赖。
type Dependencies struct {
	Resolver   TextResolver
	Router     *Router
	Classifier Classifier
	Generator  Generator
	Sender     MessageSender
}

// Pipeline 处理一次 webhook 投递：提取、解析、路由、生成、发送，全部串行。
type Pipeline struct {
	resolver   TextResolver
	router     *Router
	classifier Classifier
	generator  Generator
	sender     MessageSender
}

// Result 是一次投递的处理结果。
type Result struct {
	Status Status `json:"status"`
	Sender string `json:"-"`
}

// NewPipeline wires the collaborators together.
func NewPipeline(deps Dependencies) *Pipeline {
	return &Pipeline{
		resolver:   deps.Resolver,
		router:     deps.Router,
		classifier: deps.Classifier,
		generator:  deps.Generator,
		sender:     deps.Sender,
	}
}

// Process 处理原始 webhook 请求体。任何失败都会转换成状态标签，不会向调用方返回错误或 panic。
func (p *Pipeline) Process(ctx context.Context, raw []byte) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[relay] recovered panic: %v\n%s", rec, debug.Stack())
			result = Result{Status: StatusError, Sender: result.Sender}
		}
	}()

	msg, ok, err := message.Parse(raw)
	if err != nil {
		return p.fail(Result{}, &StageError{Stage: StageExtraction, Err: err})
	}
	if !ok {
		return Result{Status: StatusNoMessages}
	}

	result.Sender = msg.Sender
	log.Printf("[relay] incoming sender=%s kind=%s", msg.Sender, msg.Kind)

	text, err := p.resolver.Resolve(ctx, msg)
	if err != nil {
		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			return p.fail(result, &StageError{Stage: StageResolution, Err: err})
		}

		log.Printf("[relay] resolution failed sender=%s status=%s: %v", msg.Sender, procErr.Status, procErr)
		// 没有 from 字段时无人可回复
		if msg.Sender != "" {
			if sendErr := p.sender.SendText(ctx, msg.Sender, procErr.UserMessage); sendErr != nil {
				log.Printf("[relay] failed to notify sender=%s: %v", msg.Sender, sendErr)
			}
		}
		result.Status = procErr.Status
		return result
	}

	if IsCommand(text) {
		reply, err := p.router.HandleCommand(ctx, msg.Sender, text)
		if err != nil {
			return p.fail(result, &StageError{Stage: StageRouting, Err: err})
		}
		if err := p.sender.SendText(ctx, msg.Sender, reply); err != nil {
			return p.fail(result, &StageError{Stage: StageDelivery, Err: err})
		}
		result.Status = StatusOKCommand
		return result
	}

	reply := p.reply(ctx, msg.Sender, text)
	if err := p.sender.SendText(ctx, msg.Sender, reply); err != nil {
		return p.fail(result, &StageError{Stage: StageDelivery, Err: err})
	}

	result.Status = StatusOK
	return result
}

func (p *Pipeline) reply(ctx context.Context, sender, text string) string {
	mode := p.router.Mode(ctx, sender)
	switch mode {
	case persona.Chef:
		log.Printf("[relay] sender=%s mode=chef", sender)
		return p.generator.ChefReply(ctx, text)
	default:
		language := p.classifier.DetectLanguage(ctx, text)
		evaluation := p.classifier.EvaluateErrors(ctx, text, language)
		log.Printf("[relay] sender=%s mode=%s language=%s has_errors=%t severity=%s",
			sender, mode, language, evaluation.HasErrors, evaluation.Severity)
		return p.generator.TutorReply(ctx, text, language, evaluation.HasErrors)
	}
}

func (p *Pipeline) fail(result Result, err *StageError) Result {
	log.Printf("[relay] %v", fmt.Errorf("sender=%q: %w", result.Sender, err))
	result.Status = StatusError
	return result
}
