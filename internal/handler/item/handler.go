package item

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/items/backend/internal/model/item"
	itemService "github.com/zhouzirui/items/backend/internal/service/item"
	"github.com/zhouzirui/items/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler item服务的HTTP处理器
type Handler struct {
	items *itemService.Service
}

// New 创建item处理器
func New(items *itemService.Service) *Handler {
	return &Handler{items: items}
}

// RegisterRoutes 注册item相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{itemID}", h.handleGet)
	r.Put("/{itemID}", h.handleUpdate)
	r.Delete("/{itemID}", h.handleDelete)
}

// handleList 列出所有item
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleGet 按id获取item
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, found)
}

// handleCreate 创建item
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	created, err := h.items.Create(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleUpdate 更新item
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	updated, err := h.items.Update(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// handleDelete 删除item
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.items.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "item deleted")
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *item.ValidationError
	switch {
	case errors.Is(err, itemService.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &vErr):
		utils.RespondError(w, http.StatusBadRequest, vErr.Error())
	default:
		slog.Error("item storage failure",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		utils.RespondError(w, http.StatusInternalServerError, "internal storage error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "itemID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "item id must be an integer")
		return 0, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (item.Input, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return item.Input{}, false
	}

	in, err := item.ParseInput(body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return item.Input{}, false
	}
	return in, true
}
