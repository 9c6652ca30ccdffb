// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
Package types 定义 EasyVideo 客户端与后端之间共享的线上类型。

# 概述

types 不依赖任何内部包，generation、testutil 与命令行工具共用这里的
任务模型、响应包装和错误体系。

# 核心类型

  - Envelope[T] / EnvelopeError：后端统一的 {success, data, error} 响应包装，
    error 字段兼容字符串与 {message} 对象两种写法。
  - GenerationTask：生成任务快照，含类型、状态、进度与结果地址。
  - TaskType / TaskStatus：任务类型与状态枚举，状态机由 CanTransitionTo 约束。
  - Error / ErrorCode：结构化错误，携带错误码、HTTP 状态、操作名与可重试标记。

# 错误工具

  - AsError / GetErrorCode / IsCode：从错误链中提取 *Error。
  - ErrorMessage：返回面向用户的消息，非 *Error 时退回 err.Error()。
  - IsRetryable：判断是否值得重试。
*/
package types
