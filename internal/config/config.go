package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	WhatsApp   WhatsAppConfig
	AI         AIConfig
	Transcribe TranscribeConfig
	Session    SessionConfig
}

// Load 从环境变量加载配置。缺失的凭证不会导致失败，只会出现在 Warnings 中。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	whatsapp, err := loadWhatsAppConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	transcribe, err := loadTranscribeConfig(ai)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		WhatsApp:   whatsapp,
		AI:         ai,
		Transcribe: transcribe,
		Session:    SessionConfig{RedisURL: strings.TrimSpace(os.Getenv("SESSION_REDIS_URL"))},
	}, nil
}

// Warnings 列出缺失的必需配置，启动时记录但不阻止启动。
func (c *Config) Warnings() []string {
	var warnings []string
	if c.WhatsApp.VerifyToken == "" {
		warnings = append(warnings, "falta VERIFY_TOKEN")
	}
	if c.WhatsApp.PhoneID == "" {
		warnings = append(warnings, "falta WA_PHONE_ID")
	}
	if c.WhatsApp.Token == "" {
		warnings = append(warnings, "falta WA_TOKEN")
	}
	if c.AI.APIKey == "" {
		warnings = append(warnings, "falta OPENAI_API_KEY")
	}
	if c.Transcribe.Provider == ProviderVolcengine && (c.Transcribe.AppID == "" || c.Transcribe.AccessToken == "") {
		warnings = append(warnings, "falta SPEECH_APP_ID o SPEECH_ACCESS_TOKEN")
	}
	return warnings
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// WhatsAppConfig 描述 WhatsApp Cloud API 相关配置。
type WhatsAppConfig struct {
	VerifyToken string
	PhoneID     string
	Token       string
	GraphURL    string
	APIVersion  string
	Timeout     time.Duration
}

func loadWhatsAppConfig() (WhatsAppConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("WA_TIMEOUT"); err != nil {
		return WhatsAppConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	return WhatsAppConfig{
		VerifyToken: strings.TrimSpace(os.Getenv("VERIFY_TOKEN")),
		PhoneID:     strings.TrimSpace(os.Getenv("WA_PHONE_ID")),
		Token:       strings.TrimSpace(os.Getenv("WA_TOKEN")),
		GraphURL:    strings.TrimRight(getEnvOrDefault("WA_GRAPH_URL", "https://graph.facebook.com"), "/"),
		APIVersion:  getEnvOrDefault("WA_API_VERSION", "v20.0"),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AIConfig 描述大模型相关配置。BaseURL 指向任意 OpenAI 兼容的端点。
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && c.APIKey != ""
}

// NewChatModel 每次调用都创建一个新的模型实例。BindTools 会修改实例本身，
// 绑定工具的调用方需要各自持有一个实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("模型凭证缺失，需要 OPENAI_API_KEY 与 OPENAI_MODEL_TEXT")
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		Model:     c.Model,
		MaxTokens: maxTokens,
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

func loadAIConfig() (AIConfig, error) {
	temperature := 0.5
	if override, err := parseOptionalFloatEnv("AI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      firstEnv("OPENAI_API_KEY", "ARK_API_KEY"),
		Model:       getEnvOrDefault("OPENAI_MODEL_TEXT", "gpt-4o-mini"),
		BaseURL:     strings.TrimRight(orDefault(firstEnv("OPENAI_BASE_URL", "ARK_BASE_URL"), "https://api.openai.com/v1"), "/"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// Transcription providers.
const (
	ProviderOpenAI     = "openai"
	ProviderVolcengine = "volcengine"
)

// TranscribeConfig 描述语音转写配置。
type TranscribeConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration

	// 火山引擎流式 ASR
	AppID       string
	AccessToken string
	ResourceID  string
	Endpoint    string
}

func loadTranscribeConfig(ai AIConfig) (TranscribeConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("TRANSCRIBE_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderVolcengine {
		return TranscribeConfig{}, fmt.Errorf("invalid TRANSCRIBE_PROVIDER value: %q", provider)
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("SPEECH_TIMEOUT"); err != nil {
		return TranscribeConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	apiKey := strings.TrimSpace(os.Getenv("TRANSCRIBE_API_KEY"))
	if apiKey == "" {
		apiKey = ai.APIKey
	}

	return TranscribeConfig{
		Provider:    provider,
		Model:       getEnvOrDefault("OPENAI_MODEL_TRANSCRIBE", "gpt-4o-mini-transcribe"),
		BaseURL:     strings.TrimRight(getEnvOrDefault("TRANSCRIBE_BASE_URL", ai.BaseURL), "/"),
		APIKey:      apiKey,
		Language:    strings.TrimSpace(os.Getenv("TRANSCRIBE_LANGUAGE")),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		AppID:       strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken: strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN")),
		ResourceID:  getEnvOrDefault("SPEECH_RESOURCE_ID", "volc.bigasr.sauc.duration"),
		Endpoint:    getEnvOrDefault("SPEECH_ASR_URL", "wss://openspeech.bytedance.com/api/v3/sauc/bigmodel_nostream"),
	}, nil
}

// SessionConfig 描述会话模式存储。RedisURL 为空时使用进程内存。
type SessionConfig struct {
	RedisURL string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv 返回第一个非空的环境变量。
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
