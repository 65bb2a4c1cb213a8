package webhook

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/parla/backend/internal/service/relay"
	"github.com/zhouzirui/parla/backend/pkg/utils"
)

// maxBodyBytes 限制单次 webhook 请求体大小
const maxBodyBytes = 1 << 20

// Processor 处理一次 webhook 投递。
type Processor interface {
	Process(ctx context.Context, raw []byte) relay.Result
}

// Handler WhatsApp webhook 的 HTTP 处理器
type Handler struct {
	verifyToken string
	processor   Processor
}

// New 创建 webhook 处理器
func New(verifyToken string, processor Processor) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		processor:   processor,
	}
}

// RegisterRoutes 注册 webhook 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.handleVerify)
	r.Post("/webhook", h.handleDelivery)
}

// handleVerify 完成订阅握手：token 匹配时原样返回 challenge。
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		log.Printf("[webhook] verification rejected mode=%q", mode)
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "error: invalid token")
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, query.Get("hub.challenge"))
}

// handleDelivery 处理入站消息。无论结果如何都返回 200，避免平台重复投递。
func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Printf("[webhook] failed to read body: %v", err)
		utils.RespondStatus(w, string(relay.StatusError))
		return
	}

	result := h.processor.Process(r.Context(), body)
	log.Printf("[webhook] processed sender=%s status=%s", result.Sender, result.Status)
	utils.RespondStatus(w, string(result.Status))
}
