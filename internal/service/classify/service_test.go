package classify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type recordedCall struct {
	tool        string
	input       []*schema.Message
	temperature *float32
	toolChoice  *schema.ToolChoice
}

// fakeModels 充当 ModelFactory：每次创建一个新的 fakeToolModel，调用记录集中保存。
type fakeModels struct {
	mu        sync.Mutex
	replies   map[string]*schema.Message
	err       error
	calls     []recordedCall
	instances []*fakeToolModel
}

func (f *fakeModels) newModel(context.Context) (model.ChatModel, error) {
	m := &fakeToolModel{owner: f}
	f.mu.Lock()
	f.instances = append(f.instances, m)
	f.mu.Unlock()
	return m, nil
}

// fakeToolModel 按绑定的工具名返回预设消息。
type fakeToolModel struct {
	owner *fakeModels
	bound []string
}

func (m *fakeToolModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f := m.owner
	options := model.GetCommonOptions(&model.Options{}, opts...)

	tool := ""
	if len(m.bound) > 0 {
		tool = m.bound[len(m.bound)-1]
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{
		tool:        tool,
		input:       input,
		temperature: options.Temperature,
		toolChoice:  options.ToolChoice,
	})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if reply, ok := f.replies[tool]; ok {
		return reply, nil
	}
	return schema.AssistantMessage("", nil), nil
}

func (m *fakeToolModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *fakeToolModel) BindTools(tools []*schema.ToolInfo) error {
	for _, tool := range tools {
		m.bound = append(m.bound, tool.Name)
	}
	return nil
}

func toolCallMessage(name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func newTestService(t *testing.T, fake *fakeModels) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), fake.newModel)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc
}

func assertForcedToolChoice(t *testing.T, call recordedCall) {
	t.Helper()
	if call.toolChoice == nil || *call.toolChoice != schema.ToolChoiceForced {
		t.Fatalf("expected forced tool choice, got %v", call.toolChoice)
	}
}

func TestDetectLanguageParsesToolCall(t *testing.T) {
	fake := &fakeModels{replies: map[string]*schema.Message{
		languageToolName: toolCallMessage(languageToolName, `{"language":"inglés"}`),
	}}
	svc := newTestService(t, fake)

	if got := svc.DetectLanguage(context.Background(), "I has a cat"); got != "inglés" {
		t.Fatalf("DetectLanguage = %q", got)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fake.calls))
	}
	call := fake.calls[0]
	if call.tool != languageToolName {
		t.Fatalf("bound tool = %q", call.tool)
	}
	if call.temperature != nil {
		t.Fatalf("detection should not set temperature, got %v", *call.temperature)
	}
	assertForcedToolChoice(t, call)
	if len(call.input) != 2 || call.input[1].Content != "I has a cat" {
		t.Fatalf("unexpected prompt: %+v", call.input)
	}
}

func TestDetectLanguageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		fake *fakeModels
	}{
		{name: "no tool call", fake: &fakeModels{replies: map[string]*schema.Message{
			languageToolName: schema.AssistantMessage("English", nil),
		}}},
		{name: "malformed arguments", fake: &fakeModels{replies: map[string]*schema.Message{
			languageToolName: toolCallMessage(languageToolName, `{"language":`),
		}}},
		{name: "empty language", fake: &fakeModels{replies: map[string]*schema.Message{
			languageToolName: toolCallMessage(languageToolName, `{"language":"  "}`),
		}}},
		{name: "invoke error", fake: &fakeModels{err: errors.New("boom")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, tc.fake)
			if got := svc.DetectLanguage(context.Background(), "hola"); got != UnknownLanguage {
				t.Fatalf("DetectLanguage = %q, want %q", got, UnknownLanguage)
			}
		})
	}
}

func TestEvaluateErrorsUsesZeroTemperature(t *testing.T) {
	fake := &fakeModels{replies: map[string]*schema.Message{
		errorsToolName: toolCallMessage(errorsToolName, `{"has_errors":true,"severity":"moderate"}`),
	}}
	svc := newTestService(t, fake)

	got := svc.EvaluateErrors(context.Background(), "I has a cat", "inglés")
	if !got.HasErrors || got.Severity != SeverityModerate {
		t.Fatalf("EvaluateErrors = %+v", got)
	}

	call := fake.calls[0]
	if call.tool != errorsToolName {
		t.Fatalf("bound tool = %q", call.tool)
	}
	if call.temperature == nil || *call.temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", call.temperature)
	}
	assertForcedToolChoice(t, call)
	if len(call.input) == 0 || call.input[0].Role != schema.System {
		t.Fatalf("expected system prompt first: %+v", call.input)
	}
}

func TestEvaluateErrorsFallback(t *testing.T) {
	fake := &fakeModels{replies: map[string]*schema.Message{
		errorsToolName: schema.AssistantMessage("looks fine", nil),
	}}
	svc := newTestService(t, fake)

	got := svc.EvaluateErrors(context.Background(), "I have a cat", "inglés")
	if got.HasErrors || got.Severity != SeverityNone {
		t.Fatalf("EvaluateErrors = %+v, want fallback", got)
	}
}

func TestNewServiceBindsOneToolPerInstance(t *testing.T) {
	fake := &fakeModels{}
	newTestService(t, fake)

	if len(fake.instances) != 2 {
		t.Fatalf("expected 2 model instances, got %d", len(fake.instances))
	}
	want := []string{languageToolName, errorsToolName}
	for i, inst := range fake.instances {
		if len(inst.bound) != 1 || inst.bound[0] != want[i] {
			t.Fatalf("instance %d bound %v, want [%s]", i, inst.bound, want[i])
		}
	}
}

func TestNewServiceFactoryError(t *testing.T) {
	failing := func(context.Context) (model.ChatModel, error) {
		return nil, errors.New("no credentials")
	}
	if _, err := NewService(context.Background(), failing); err == nil {
		t.Fatal("expected error when the model factory fails")
	}
}

func TestNilModelUsesFallbacks(t *testing.T) {
	svc, err := NewService(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if got := svc.DetectLanguage(context.Background(), "hola"); got != UnknownLanguage {
		t.Fatalf("DetectLanguage = %q", got)
	}
	if got := svc.EvaluateErrors(context.Background(), "hola", "español"); got.HasErrors {
		t.Fatalf("EvaluateErrors = %+v", got)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"none":     SeverityNone,
		"ninguno":  SeverityNone,
		"slight":   SeveritySlight,
		"Leve":     SeveritySlight,
		"moderado": SeverityModerate,
		"HIGH":     SeverityHigh,
		"alto":     SeverityHigh,
		"terrible": SeverityNone,
		"":         SeverityNone,
	}
	for raw, want := range cases {
		if got := ParseSeverity(raw); got != want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", raw, got, want)
		}
	}
	if !(SeverityNone < SeveritySlight && SeveritySlight < SeverityModerate && SeverityModerate < SeverityHigh) {
		t.Fatal("severity order broken")
	}
}
