package speech

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// 火山引擎 SAUC 二进制帧协议：4 字节头 + 可选序号 + payload 长度 + payload。

const protocolVersion = 0b0001

// MessageType 消息类型
type MessageType uint8

const (
	FullClientRequest  MessageType = 0b0001
	AudioOnlyRequest   MessageType = 0b0010
	FullServerResponse MessageType = 0b1001
	ErrorMessage       MessageType = 0b1111
)

// MessageFlags 序号标志
type MessageFlags uint8

const (
	NoSequenceNumber       MessageFlags = 0b0000
	PositiveSequenceNumber MessageFlags = 0b0001
	LastPacketNoSequence   MessageFlags = 0b0010
	NegativeSequenceNumber MessageFlags = 0b0011
)

const (
	noSerialization   uint8 = 0b0000
	jsonSerialization uint8 = 0b0001
	gzipCompression   uint8 = 0b0001
)

// Frame 是一条解码后的协议消息。
type Frame struct {
	Type       MessageType
	Flags      MessageFlags
	Compressed bool
	Sequence   int32
	ErrorCode  uint32
	Payload    []byte
}

// IsLast 判断是否为最后一包
func (f *Frame) IsLast() bool {
	switch f.Flags & 0b0011 {
	case LastPacketNoSequence, NegativeSequenceNumber:
		return true
	default:
		return false
	}
}

// newConfigFrame 构建携带 JSON 请求参数的首帧。
func newConfigFrame(payload []byte) *Frame {
	return &Frame{Type: FullClientRequest, Flags: NoSequenceNumber, Compressed: true, Payload: payload}
}

// newAudioFrame 构建音频帧，最后一包使用负序号。
func newAudioFrame(chunk []byte, sequence int32, last bool) *Frame {
	flags := PositiveSequenceNumber
	if last {
		flags = NegativeSequenceNumber
		sequence = -sequence
	}
	return &Frame{Type: AudioOnlyRequest, Flags: flags, Compressed: true, Sequence: sequence, Payload: chunk}
}

// EncodeFrame 编码帧；Compressed 为 true 时 payload 先做 gzip 压缩。
func EncodeFrame(f *Frame) ([]byte, error) {
	payload := f.Payload
	compression := uint8(0)
	if f.Compressed {
		compressed, err := gzipBytes(payload)
		if err != nil {
			return nil, err
		}
		payload = compressed
		compression = gzipCompression
	}

	serialization := noSerialization
	if f.Type == FullClientRequest || f.Type == FullServerResponse {
		serialization = jsonSerialization
	}

	buf := bytes.NewBuffer(make([]byte, 0, 12+len(payload)))
	buf.WriteByte(protocolVersion<<4 | 0b0001)
	buf.WriteByte(uint8(f.Type)<<4 | uint8(f.Flags))
	buf.WriteByte(serialization<<4 | compression)
	buf.WriteByte(0x00)

	switch f.Flags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		_ = binary.Write(buf, binary.BigEndian, f.Sequence)
	}
	if f.Type == ErrorMessage {
		_ = binary.Write(buf, binary.BigEndian, f.ErrorCode)
	}

	_ = binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// DecodeFrame 解码服务端消息，并解压 payload。
func DecodeFrame(data []byte) (*Frame, error) {
	reader := bytes.NewReader(data)

	header := make([]byte, 4)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if version := header[0] >> 4; version != protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", version)
	}

	// header size 以 4 字节为单位
	if extra := int(header[0]&0x0F)*4 - 4; extra > 0 {
		if _, err := io.CopyN(io.Discard, reader, int64(extra)); err != nil {
			return nil, fmt.Errorf("failed to read extended header: %w", err)
		}
	}

	f := &Frame{
		Type:       MessageType(header[1] >> 4),
		Flags:      MessageFlags(header[1] & 0x0F),
		Compressed: header[2]&0x0F == gzipCompression,
	}

	switch f.Flags & 0b0011 {
	case PositiveSequenceNumber, NegativeSequenceNumber:
		if err := binary.Read(reader, binary.BigEndian, &f.Sequence); err != nil {
			return nil, fmt.Errorf("failed to read sequence: %w", err)
		}
	}
	if f.Type == ErrorMessage {
		if err := binary.Read(reader, binary.BigEndian, &f.ErrorCode); err != nil {
			return nil, fmt.Errorf("failed to read error code: %w", err)
		}
	}

	var size uint32
	if err := binary.Read(reader, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read payload size: %w", err)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload (expected %d bytes): %w", size, err)
	}

	if f.Compressed && len(payload) > 0 {
		decompressed, err := gunzipBytes(payload)
		if err != nil {
			return nil, err
		}
		payload = decompressed
	}
	f.Payload = payload
	return f, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader creation failed: %w", err)
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	return result, nil
}
