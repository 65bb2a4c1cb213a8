package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/parla/backend/internal/config"
	"github.com/zhouzirui/parla/backend/internal/service/speech"
	"github.com/zhouzirui/parla/backend/internal/service/whatsapp"
)

// 手动验证转写凭证：转写本地音频文件，或先从 WhatsApp 下载媒体再转写。
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	audioPath := flag.String("audio", "", "本地音频文件路径")
	mediaID := flag.String("media", "", "WhatsApp 媒体 id，与 -audio 二选一")
	mimeType := flag.String("mime", "", "音频 mime type，默认根据扩展名推断")
	provider := flag.String("provider", "", "转写后端: openai 或 volcengine，默认使用配置")
	language := flag.String("lang", "", "语言提示，默认使用配置")
	timeout := flag.Duration("timeout", 60*time.Second, "请求超时时间")

	flag.Parse()

	if (*audioPath == "") == (*mediaID == "") {
		flag.Usage()
		log.Fatal("请通过 -audio 或 -media 指定一个音频来源")
	}

	transcribeCfg := cfg.Transcribe
	if *provider != "" {
		transcribeCfg.Provider = *provider
	}
	if *language != "" {
		transcribeCfg.Language = *language
	}

	transcriber, err := speech.NewTranscriber(transcribeCfg)
	if err != nil {
		log.Fatalf("创建转写器失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	requestID := uuid.NewString()

	var (
		audio []byte
		mime  = *mimeType
	)
	if *mediaID != "" {
		client := whatsapp.NewClient(whatsapp.Config{
			GraphURL:   cfg.WhatsApp.GraphURL,
			APIVersion: cfg.WhatsApp.APIVersion,
			PhoneID:    cfg.WhatsApp.PhoneID,
			Token:      cfg.WhatsApp.Token,
			Timeout:    cfg.WhatsApp.Timeout,
		})
		media, err := client.DownloadMedia(ctx, *mediaID)
		if err != nil {
			log.Fatalf("下载媒体失败: %v", err)
		}
		audio = media.Data
		if mime == "" {
			mime = media.MimeType
		}
	} else {
		audio, err = os.ReadFile(*audioPath)
		if err != nil {
			log.Fatalf("读取音频文件失败: %v", err)
		}
		if mime == "" {
			mime = mimeFromPath(*audioPath)
		}
	}

	log.Printf("开始转写: request=%s provider=%s mime=%s bytes=%d", requestID, transcribeCfg.Provider, mime, len(audio))

	start := time.Now()
	text, err := transcriber.Transcribe(ctx, audio, mime)
	if err != nil {
		log.Fatalf("转写失败: request=%s err=%v", requestID, err)
	}

	log.Printf("转写成功: request=%s elapsed=%s text=%q", requestID, time.Since(start).Round(time.Millisecond), text)
}

func mimeFromPath(path string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case "ogg", "opus":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "m4a":
		return "audio/m4a"
	default:
		return "audio/mpeg"
	}
}
