// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
包 generation 提供 EasyVideo 内容生成后端的类型化 Go 客户端。

# 概述

Client 为后端每个端点提供一个方法：文生图、图生视频、图片上传、
提示词优化、故事板、批量任务、任务管理、历史记录、预设、队列与模型切换。
所有响应都使用 {success, data, error} 包装，客户端统一解包：

  - success=false 时返回 REQUEST_FAILED，消息取服务端 error，缺省时使用
    该操作的本地化兜底文案。
  - success=true 但 data 缺失时返回 PROTOCOL_VIOLATION（无返回值的操作除外）。
  - 非包装格式的 HTTP 错误返回 UPSTREAM_ERROR 并携带状态码。

# 进度订阅

ListenToProgress 打开 /api/generation/progress/{taskId} 的 SSE 流，在独立
goroutine 中按顺序回调 OnProgress、OnError、OnComplete。每个订阅恰好产生
一次终止结果，Unsubscribe 之后不再触发任何回调。WatchProgress 提供 channel
形式，WaitForTask 与 WaitForTasks 提供阻塞等待形式。

# 横切能力

每次调用创建一个 OTel span（generation.<op>），记录 Prometheus 指标，
注入 Authorization、Accept-Language、X-Request-ID 与 traceparent 请求头。
客户端不做重试，可选的 x/time/rate 限流器只负责平滑请求速率。
*/
package generation
