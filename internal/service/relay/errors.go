package relay

import "fmt"

// Status 是 POST /webhook 响应中的状态标签。
type Status string

const (
	StatusNoMessages          Status = "no_messages"
	StatusEmptyText           Status = "empty_text"
	StatusNoAudioID           Status = "no_audio_id"
	StatusAudioDownloadError  Status = "audio_download_error"
	StatusTranscriptionFailed Status = "transcription_failed"
	StatusUnsupportedType     Status = "unsupported_type"
	StatusOKCommand           Status = "ok_command"
	StatusOK                  Status = "ok"
	StatusError               Status = "error"
)

// 解析失败时回复给用户的文本。
const (
	msgEmptyText           = "No recibí contenido para procesar. ¿Podrías enviarlo de nuevo?"
	msgNoAudioID           = "No pude obtener el audio, ¿puedes intentarlo otra vez?"
	msgAudioDownloadError  = "Hubo un problema descargando tu audio. ¿Puedes enviarlo nuevamente?"
	msgTranscriptionFailed = "No pude transcribir tu audio. ¿Podrías intentarlo con otro mensaje?"
	msgUnsupportedType     = "Por ahora solo puedo ayudarte con mensajes de texto o audios. 😊"
)

// ProcessingError 表示可恢复的内容解析失败：UserMessage 发回给用户，Status 写入响应。
// Err 保留原始原因，仅用于日志。
type ProcessingError struct {
	Status      Status
	UserMessage string
	Err         error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Status, e.Err)
	}
	return string(e.Status)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func newProcessingError(status Status, userMessage string, cause error) *ProcessingError {
	return &ProcessingError{Status: status, UserMessage: userMessage, Err: cause}
}

// Stage 标识流水线中出错的阶段。
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageResolution     Stage = "resolution"
	StageRouting        Stage = "routing"
	StageClassification Stage = "classification"
	StageGeneration     Stage = "generation"
	StageDelivery       Stage = "delivery"
)

// StageError 包装非预期错误并记录发生阶段。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
