// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的客户端指标采集能力，覆盖
API 请求与任务进度流两个维度。

# 概述

Collector 统一注册和记录 Prometheus 指标。注册表由调用方传入，
CLI 每次运行创建独立的 Registry，由 internal/server 暴露 /metrics。
所有记录方法对 nil Collector 安全，客户端未启用指标时无需判空。

# 主要能力

  - 请求指标：按 operation/status 计数与耗时分布，status 为 ok 或错误码。
  - 上传指标：上传字节总数。
  - 进度流指标：活跃流数量 Gauge，按 progress/complete/error 分类的事件计数。
*/
package metrics
