package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/parla/backend/internal/config"
)

// ErrEmptyAudio 表示没有可转写的音频数据。
var ErrEmptyAudio = errors.New("no audio data to transcribe")

// Transcriber 将一段音频转写为文本。mimeType 仅作为格式提示。
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// NewTranscriber 根据配置选择转写后端。
func NewTranscriber(cfg config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewWhisperTranscriber(WhisperConfig{
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Language: cfg.Language,
			Timeout:  cfg.Timeout,
		}), nil
	case config.ProviderVolcengine:
		return NewVolcengineTranscriber(VolcengineConfig{
			Endpoint:    cfg.Endpoint,
			AppID:       cfg.AppID,
			AccessToken: cfg.AccessToken,
			ResourceID:  cfg.ResourceID,
			Language:    cfg.Language,
			Timeout:     cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider %q", cfg.Provider)
	}
}

// ExtensionFromMIME 把 WhatsApp 给出的 mime type 映射为上传文件的扩展名。
func ExtensionFromMIME(mimeType string) string {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mime, "wav"):
		return "wav"
	case strings.Contains(mime, "ogg"):
		return "ogg"
	case strings.Contains(mime, "m4a"):
		return "m4a"
	default:
		return "mp3"
	}
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}
