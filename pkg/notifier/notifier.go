package notifier

import (
	"context"

	"go.uber.org/zap"
)

// 通知渠道
const (
	MethodPush  = "push"
	MethodEmail = "email"
)

// Payload 下游投递所需的通知内容
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// Notifier 通知投递接口
// 具体渠道（推送服务 / 邮件网关）由部署方实现
type Notifier interface {
	Send(ctx context.Context, userID, method string, payload *Payload) error
}

// LogNotifier 仅记录日志的投递实现，用于本地运行或尚未接入投递渠道的环境
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建 LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send 记录一条通知
func (n *LogNotifier) Send(_ context.Context, userID, method string, payload *Payload) error {
	n.logger.Info("发送复习提醒",
		zap.String("user_id", userID),
		zap.String("method", method),
		zap.String("title", payload.Title),
		zap.String("body", payload.Body),
		zap.Any("data", payload.Data),
	)
	return nil
}
