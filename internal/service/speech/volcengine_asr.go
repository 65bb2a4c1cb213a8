package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// VolcengineConfig 描述火山引擎大模型流式 ASR 的连接参数。
type VolcengineConfig struct {
	Endpoint    string
	AppID       string
	AccessToken string
	ResourceID  string
	Language    string
	Timeout     time.Duration
}

// VolcengineTranscriber 火山引擎ASR WebSocket客户端
type VolcengineTranscriber struct {
	cfg    VolcengineConfig
	dialer *websocket.Dialer
}

// audioChunkSize 每个音频帧的字节数
const audioChunkSize = 16 * 1024

type asrRequest struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
		Codec    string `json:"codec,omitempty"`
		Rate     int    `json:"rate,omitempty"`
		Channel  int    `json:"channel,omitempty"`
	} `json:"audio"`
	Request struct {
		ModelName  string `json:"model_name"`
		EnableITN  bool   `json:"enable_itn,omitempty"`
		EnablePunc bool   `json:"enable_punc,omitempty"`
		ResultType string `json:"result_type,omitempty"`
	} `json:"request"`
}

type asrServerMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Result  struct {
		Text       string `json:"text"`
		Utterances []struct {
			Text string `json:"text"`
		} `json:"utterances,omitempty"`
	} `json:"result"`
}

// NewVolcengineTranscriber 创建火山引擎ASR客户端
func NewVolcengineTranscriber(cfg VolcengineConfig) *VolcengineTranscriber {
	return &VolcengineTranscriber{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeoutOrDefault(cfg.Timeout),
		},
	}
}

// Transcribe 建立一次 WebSocket 会话：发送配置帧、分包发送音频，读取到最后一包结果为止。
func (c *VolcengineTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if c.cfg.AppID == "" || c.cfg.AccessToken == "" {
		return "", fmt.Errorf("火山引擎语音配置缺少 AppID 或 AccessToken")
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(c.cfg.Timeout))
	defer cancel()

	connectID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Api-App-Key", c.cfg.AppID)
	header.Set("X-Api-Access-Key", c.cfg.AccessToken)
	header.Set("X-Api-Resource-Id", c.cfg.ResourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.Endpoint, header)
	if err != nil {
		return "", fmt.Errorf("failed to connect to ASR WebSocket: %w", err)
	}
	defer conn.Close()

	if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
		log.Printf("[ASR] connected connect_id=%s logid=%s", connectID, logid)
	}

	// 读写都在阻塞调用中，ctx 结束时关闭连接以解除阻塞
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	payload, err := json.Marshal(c.buildRequest(connectID, mimeType))
	if err != nil {
		return "", fmt.Errorf("failed to marshal ASR request: %w", err)
	}
	if err := c.writeFrame(conn, newConfigFrame(payload)); err != nil {
		return "", fmt.Errorf("failed to send ASR request: %w", err)
	}

	sendErrCh := make(chan error, 1)
	go func() {
		sendErrCh <- c.sendAudio(conn, audio)
	}()

	text, err := c.receive(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	if sendErr := <-sendErrCh; sendErr != nil {
		log.Printf("[ASR] audio upload finished with error after final result: %v", sendErr)
	}

	return strings.TrimSpace(text), nil
}

func (c *VolcengineTranscriber) buildRequest(uid, mimeType string) *asrRequest {
	req := &asrRequest{}
	req.User.UID = uid

	switch ExtensionFromMIME(mimeType) {
	case "ogg":
		req.Audio.Format = "ogg"
		req.Audio.Codec = "opus"
	case "wav":
		req.Audio.Format = "wav"
	default:
		req.Audio.Format = "mp3"
	}
	req.Audio.Rate = 16000
	req.Audio.Channel = 1
	req.Audio.Language = c.cfg.Language

	req.Request.ModelName = "bigmodel"
	req.Request.EnableITN = true
	req.Request.EnablePunc = true
	req.Request.ResultType = "full"
	return req
}

// sendAudio 音频序号从 2 开始，配置帧占用序号 1。
func (c *VolcengineTranscriber) sendAudio(conn *websocket.Conn, audio []byte) error {
	sequence := int32(2)
	for start := 0; start < len(audio); start += audioChunkSize {
		end := min(start+audioChunkSize, len(audio))
		last := end >= len(audio)

		if err := c.writeFrame(conn, newAudioFrame(audio[start:end], sequence, last)); err != nil {
			return fmt.Errorf("failed to send audio chunk %d: %w", sequence, err)
		}
		sequence++
	}
	return nil
}

func (c *VolcengineTranscriber) receive(conn *websocket.Conn) (string, error) {
	var finalText string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("failed to read ASR response: %w", err)
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode ASR message: %w", err)
		}

		switch frame.Type {
		case ErrorMessage:
			return "", fmt.Errorf("ASR error %d: %s", frame.ErrorCode, string(frame.Payload))
		case FullServerResponse:
			var msg asrServerMessage
			if err := json.Unmarshal(frame.Payload, &msg); err != nil {
				log.Printf("[ASR] failed to unmarshal response: %v", err)
				continue
			}
			if msg.Code != 0 && msg.Code != 20000000 {
				return "", fmt.Errorf("ASR API error %d: %s", msg.Code, msg.Message)
			}
			if text := resultText(msg); text != "" {
				finalText = text
			}
			if frame.IsLast() {
				return finalText, nil
			}
		}
	}
}

func (c *VolcengineTranscriber) writeFrame(conn *websocket.Conn, frame *Frame) error {
	data, err := EncodeFrame(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func resultText(msg asrServerMessage) string {
	if msg.Result.Text != "" {
		return msg.Result.Text
	}
	parts := make([]string, 0, len(msg.Result.Utterances))
	for _, u := range msg.Result.Utterances {
		if u.Text != "" {
			parts = append(parts, u.Text)
		}
	}
	return strings.Join(parts, " ")
}
