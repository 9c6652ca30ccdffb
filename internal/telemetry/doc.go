// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 EasyVideo 客户端的请求 span 提供集中式的 TracerProvider 和 MeterProvider。
// 遥测禁用时保留全局 noop 实现，不连接任何外部服务。
package telemetry
