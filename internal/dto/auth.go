package dto

// ── 认证模块 DTO ──

// LogoutResponse 登出响应
type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}
