package admin

import (
	"errors"

	"github.com/digibuy-next/internal/http/response"
	"github.com/digibuy-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TestEmailRequest 测试邮件请求
type TestEmailRequest struct {
	ToEmail string `json:"to_email" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendTestEmail 发送测试邮件，用于校验 SMTP 配置
func (h *Handler) SendTestEmail(c *gin.Context) {
	var req TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.EmailService.SendCustomEmail(req.ToEmail, req.Subject, req.Body); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			respondError(c, response.CodeBadRequest, "error.email_disabled", nil)
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmailRecipientRejected):
			respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.email_send_failed", err)
		}
		return
	}
	response.Success(c, nil)
}
