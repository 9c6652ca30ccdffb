// Package tlsutil 提供集中式 TLS 与 Transport 配置，
// 为生成客户端的普通请求与 SSE 长连接提供安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
