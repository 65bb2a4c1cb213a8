package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{GraphURL: srv.URL + "/", APIVersion: "v20.0", PhoneID: "555", Token: "tok"})
	if err := client.SendText(context.Background(), "123", "hola"); err != nil {
		t.Fatalf("SendText err: %v", err)
	}

	if gotPath != "/v20.0/555/messages" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["messaging_product"] != "whatsapp" || gotBody["to"] != "123" || gotBody["type"] != "text" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	text, _ := gotBody["text"].(map[string]any)
	if text["body"] != "hola" {
		t.Fatalf("unexpected text body: %v", gotBody["text"])
	}
}

func TestSendTextNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{GraphURL: srv.URL, APIVersion: "v20.0", PhoneID: "555", Token: "bad"})
	if err := client.SendText(context.Background(), "123", "hola"); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestDownloadMediaTwoStep(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v20.0/media-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url":       srv.URL + "/blob/media-1",
			"mime_type": "audio/ogg; codecs=opus",
		})
	})
	mux.HandleFunc("/blob/media-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("OggS"))
	})

	client := NewClient(Config{GraphURL: srv.URL, APIVersion: "v20.0", Token: "tok"})
	media, err := client.DownloadMedia(context.Background(), "media-1")
	if err != nil {
		t.Fatalf("DownloadMedia err: %v", err)
	}
	if string(media.Data) != "OggS" {
		t.Fatalf("unexpected data: %q", media.Data)
	}
	if media.MimeType != "audio/ogg; codecs=opus" {
		t.Fatalf("unexpected mime: %s", media.MimeType)
	}
}

func TestDownloadMediaMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"mime_type":"audio/ogg"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{GraphURL: srv.URL, APIVersion: "v20.0", Token: "tok"})
	_, err := client.DownloadMedia(context.Background(), "media-1")
	if !errors.Is(err, ErrMissingMediaURL) {
		t.Fatalf("expected ErrMissingMediaURL, got %v", err)
	}
}
