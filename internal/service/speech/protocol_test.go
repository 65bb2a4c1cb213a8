package speech

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		frame *Frame
	}{
		{name: "config", frame: newConfigFrame([]byte(`{"audio":{"format":"ogg"}}`))},
		{name: "audio", frame: newAudioFrame([]byte("chunk"), 3, false)},
		{name: "last audio", frame: newAudioFrame([]byte("tail"), 4, true)},
		{name: "error", frame: &Frame{Type: ErrorMessage, ErrorCode: 45000001, Payload: []byte("bad request")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeFrame(tc.frame)
			if err != nil {
				t.Fatalf("EncodeFrame err: %v", err)
			}
			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame err: %v", err)
			}
			if got.Type != tc.frame.Type || got.Flags != tc.frame.Flags {
				t.Fatalf("header mismatch: got %v/%v want %v/%v", got.Type, got.Flags, tc.frame.Type, tc.frame.Flags)
			}
			if got.Sequence != tc.frame.Sequence {
				t.Fatalf("sequence = %d, want %d", got.Sequence, tc.frame.Sequence)
			}
			if got.ErrorCode != tc.frame.ErrorCode {
				t.Fatalf("error code = %d, want %d", got.ErrorCode, tc.frame.ErrorCode)
			}
			if !bytes.Equal(got.Payload, tc.frame.Payload) {
				t.Fatalf("payload = %q, want %q", got.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestLastAudioFrameUsesNegativeSequence(t *testing.T) {
	f := newAudioFrame([]byte("x"), 7, true)
	if f.Sequence != -7 {
		t.Fatalf("sequence = %d, want -7", f.Sequence)
	}
	if !f.IsLast() {
		t.Fatal("last frame should report IsLast")
	}
	if newAudioFrame([]byte("x"), 7, false).IsLast() {
		t.Fatal("intermediate frame should not report IsLast")
	}
}

func TestDecodeFrameRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x11}); err == nil {
		t.Fatal("expected error for truncated header")
	}

	data, err := EncodeFrame(newConfigFrame([]byte("{}")))
	if err != nil {
		t.Fatalf("EncodeFrame err: %v", err)
	}
	if _, err := DecodeFrame(data[:len(data)-2]); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
