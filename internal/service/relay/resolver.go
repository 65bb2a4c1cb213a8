package relay

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/zhouzirui/parla/backend/internal/model/message"
	"github.com/zhouzirui/parla/backend/internal/service/speech"
	"github.com/zhouzirui/parla/backend/internal/service/whatsapp"
)

// MediaFetcher 根据媒体 id 下载音频。
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) (*whatsapp.Media, error)
}

// Resolver 把一条入站消息转换成最终文本，失败时返回 *ProcessingError。
type Resolver struct {
	media       MediaFetcher
	transcriber speech.Transcriber
}

// NewResolver creates a resolver backed by the given collaborators.
func NewResolver(media MediaFetcher, transcriber speech.Transcriber) *Resolver {
	return &Resolver{media: media, transcriber: transcriber}
}

// Resolve returns the trimmed text of msg, transcribing audio when needed.
func (r *Resolver) Resolve(ctx context.Context, msg message.IncomingMessage) (string, error) {
	switch {
	case msg.Kind == message.KindText:
		if msg.Text != nil {
			if text := strings.TrimSpace(*msg.Text); text != "" {
				return text, nil
			}
		}
		return "", newProcessingError(StatusEmptyText, msgEmptyText, nil)

	case msg.Kind.IsAudio():
		return r.resolveAudio(ctx, msg)

	default:
		return "", newProcessingError(StatusUnsupportedType, msgUnsupportedType, nil)
	}
}

func (r *Resolver) resolveAudio(ctx context.Context, msg message.IncomingMessage) (string, error) {
	if msg.MediaID == nil || strings.TrimSpace(*msg.MediaID) == "" {
		return "", newProcessingError(StatusNoAudioID, msgNoAudioID, nil)
	}

	media, err := r.media.DownloadMedia(ctx, *msg.MediaID)
	if err != nil {
		return "", newProcessingError(StatusAudioDownloadError, msgAudioDownloadError, err)
	}
	if media == nil {
		return "", newProcessingError(StatusAudioDownloadError, msgAudioDownloadError, errors.New("media resolver returned nothing"))
	}

	transcript, err := r.transcriber.Transcribe(ctx, media.Data, media.MimeType)
	if err != nil {
		return "", newProcessingError(StatusTranscriptionFailed, msgTranscriptionFailed, err)
	}

	text := strings.TrimSpace(transcript)
	if text == "" {
		return "", newProcessingError(StatusTranscriptionFailed, msgTranscriptionFailed, errors.New("empty transcript"))
	}

	log.Printf("[relay] transcription for sender=%s: %s", msg.Sender, text)
	return text, nil
}
