package handler

import (
	"net/http"

	auth "burnlink/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 单管理员登录。系统只有一个运维身份，
// 密码的 bcrypt 哈希放在配置里，不建用户表。
type AuthHandler struct {
	passwordHash string
	jwtManager   *auth.TokenManager
}

// NewAuthHandler 创建一个新的 AuthHandler
func NewAuthHandler(passwordHash string, jwtManager *auth.TokenManager) *AuthHandler {
	return &AuthHandler{passwordHash: passwordHash, jwtManager: jwtManager}
}

// LoginRequest 定义了登录请求的结构体
type LoginRequest struct {
	Password string `json:"password" binding:"required" example:"admin"`
}

// LoginResponse 登录成功的响应
type LoginResponse struct {
	Token string `json:"token"`
}

// Login godoc
// @Summary 管理员登录
// @Description 校验管理密码并签发访问令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   body  body  LoginRequest  true  "管理密码"
// @Success 200 {object} LoginResponse "令牌"
// @Failure 401 {object} gin.H "密码错误"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	if h.passwordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "管理密码未配置"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "密码错误"})
		return
	}

	token, err := h.jwtManager.GenerateToken("admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发令牌失败"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token})
}
