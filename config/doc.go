// Package config 提供 EasyVideo 客户端的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（EASYVIDEO_ 前缀）的顺序合并，
// 覆盖客户端连接、日志、遥测与指标四个部分。
package config
