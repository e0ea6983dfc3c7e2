package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"burnlink/internal/engine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkHandler 把引擎结果翻译成传输层响应。
// 策略判定（过期/超限）是预期结果不是故障，在这里映射成 410，
// 存储故障统一 500 且不向终端用户泄露细节。
type LinkHandler struct {
	engine  *engine.Engine
	baseURL string
	logger  *zap.SugaredLogger
}

// NewLinkHandler 创建处理器实例
func NewLinkHandler(eng *engine.Engine, baseURL string, logger *zap.SugaredLogger) *LinkHandler {
	return &LinkHandler{engine: eng, baseURL: baseURL, logger: logger.Named("handler")}
}

// HealthCheck 健康检查
func (h *LinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// CreateLinkRequest 创建短链接的请求体
type CreateLinkRequest struct {
	URL  string `json:"url" binding:"required" example:"https://github.com/gin-gonic/gin"`
	Slug string `json:"slug" example:"my-link"`
	Note string `json:"note" example:"发布页链接"`
}

// CreateLinkResponse 创建成功的响应
type CreateLinkResponse struct {
	ID       uint   `json:"id"`
	Slug     string `json:"slug" example:"aB3xYz"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url" example:"http://localhost:8080/aB3xYz"`
}

// CreateLink godoc
// @Summary 创建短链接
// @Description 为一个长 URL 创建短链接，slug 缺省时自动生成 6 位随机码
// @Tags Link
// @Accept  json
// @Produce  json
// @Param   body  body   CreateLinkRequest  true  "目标 URL 与可选自定义 slug"
// @Success 201 {object} CreateLinkResponse "创建成功"
// @Failure 400 {object} gin.H "URL 或 slug 非法"
// @Failure 409 {object} gin.H "slug 已被占用"
// @Failure 429 {object} gin.H "今日创建配额已用完"
// @Router /api/shorten [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.engine.Allocate(c.Request.Context(), req.Slug, req.URL)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	if req.Note != "" {
		if err := h.engine.UpdateNote(c.Request.Context(), link.ID, req.Note); err != nil {
			h.logger.Warnf("写入备注失败 id=%d: %v", link.ID, err)
		}
	}

	base := h.baseURL
	if base == "" {
		base = "http://" + c.Request.Host
	}
	c.JSON(http.StatusCreated, CreateLinkResponse{
		ID:       link.ID,
		Slug:     link.Slug,
		URL:      link.URL,
		ShortURL: base + "/" + link.Slug,
	})
}

// Redirect godoc
// @Summary 跳转短链接
// @Tags Link
// @Param   slug  path  string  true  "短链接 slug"
// @Success 302 "跳转到目标地址"
// @Failure 404 {object} gin.H "不存在"
// @Failure 410 {object} gin.H "已过期或已达访问上限"
// @Router /{slug} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	res, err := h.engine.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	switch res.Status {
	case engine.StatusRedirect:
		// 每次成功跳转恰好记一次账，记账不阻塞响应
		h.engine.Record(res.LinkID, c.ClientIP(), c.Request.UserAgent(), c.Request.Referer())
		c.Redirect(http.StatusFound, res.URL)
	case engine.StatusExpired:
		c.JSON(http.StatusGone, gin.H{"error": "短链接已过期"})
	case engine.StatusLimitReached:
		c.JSON(http.StatusGone, gin.H{"error": "短链接已达到最大访问次数（阅后即焚）"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "短链接不存在"})
	}
}

// UpdatePolicyRequest 策略更新请求体。两种策略互斥，设置一个即清除另一个。
type UpdatePolicyRequest struct {
	Action string `json:"action" binding:"required" example:"set_expiry_days"`
	Value  int    `json:"value" example:"30"`
}

// UpdatePolicy 更新链接的生命周期策略
// action: set_expiry_days（value 为天数，0 清除）/ set_burn_after_n（value 为次数）
// set_1_time 是 set_burn_after_n value=1 的旧写法，保留兼容
func (h *LinkHandler) UpdatePolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	var err error
	switch req.Action {
	case "set_expiry_days":
		_, err = h.engine.SetExpiryDays(c.Request.Context(), id, req.Value)
	case "set_burn_after_n":
		_, err = h.engine.SetBurnAfter(c.Request.Context(), id, req.Value)
	case "set_1_time":
		_, err = h.engine.SetBurnAfter(c.Request.Context(), id, 1)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知的 action: " + req.Action})
		return
	}
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateNoteRequest 备注更新请求体
type UpdateNoteRequest struct {
	Note string `json:"note"`
}

// UpdateNote 更新链接备注（唯一可变的非策略字段）
func (h *LinkHandler) UpdateNote(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	if err := h.engine.UpdateNote(c.Request.Context(), id, req.Note); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSettings 读取全局设置，缺失键回落默认值
func (h *LinkHandler) GetSettings(c *gin.Context) {
	settings, err := h.engine.LoadSettings(c.Request.Context())
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettingsRequest 设置更新请求体，未提交的键不修改
type UpdateSettingsRequest struct {
	DailyLimit    *int `json:"daily_limit"`
	RetentionDays *int `json:"retention_days"`
}

// UpdateSettings 更新全局设置
func (h *LinkHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	if err := h.engine.UpdateSettings(c.Request.Context(), req.DailyLimit, req.RetentionDays); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CleanRequest 清理请求体
type CleanRequest struct {
	RetentionDays int `json:"retention_days" example:"30"`
}

// Clean godoc
// @Summary 批量清理过期数据
// @Description 删除早于保留期的链接及访问记录，运维手动触发
// @Tags Admin
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   body  body  CleanRequest  true  "保留天数"
// @Success 200 {object} gin.H "清理结果"
// @Router /api/clean [post]
func (h *LinkHandler) Clean(c *gin.Context) {
	var req CleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	deleted, err := h.engine.Sweep(c.Request.Context(), req.RetentionDays)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
		"message": "清理完成，已删除 " + strconv.FormatInt(deleted, 10) + " 条过期短链",
	})
}

// ListLinks 返回全部链接及访问计数
func (h *LinkHandler) ListLinks(c *gin.Context) {
	rows, err := h.engine.List(c.Request.Context())
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Dashboard 仪表盘统计
func (h *LinkHandler) Dashboard(c *gin.Context) {
	stats, err := h.engine.Dashboard(c.Request.Context())
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteLink 删除链接及其访问记录
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.engine.Delete(c.Request.Context(), id); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// pathID 解析路径里的链接 ID
func (h *LinkHandler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "非法的链接 ID"})
		return 0, false
	}
	return uint(id), true
}

// writeEngineError 按引擎错误分类映射状态码
func (h *LinkHandler) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidURL), errors.Is(err, engine.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrSlugConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrAllocationExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		// 存储故障不把底层细节透给客户端
		h.logger.Errorf("存储层错误: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}
