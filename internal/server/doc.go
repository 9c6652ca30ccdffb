// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
包 server 在独立端口上暴露 CLI 的 Prometheus 指标。

# 概述

Exporter 封装 net/http.Server，仅挂载 /metrics 与 /healthz 两个路由。
Start 同步完成端口监听，地址冲突等错误会立即返回，随后在后台
goroutine 中提供服务；运行期错误通过 Errors() 通道传递。

# 核心类型

  - Exporter：指标服务器，持有 http.Server、net.Listener 与错误通道。
  - Config：监听地址、读取超时与优雅关闭超时。

# 使用方式

	exp := server.NewExporter(reg, server.Config{Addr: "127.0.0.1:9464"}, logger)
	if err := exp.Start(); err != nil { ... }
	defer exp.Shutdown(ctx)

Addr() 返回实际监听地址，监听 ":0" 时可用于获取随机端口。
*/
package server
