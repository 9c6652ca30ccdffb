// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
easyvideo 是 EasyVideo 生成服务的命令行客户端。

# 概述

命令行工具基于 generation.Client 封装全部后端操作：文生图、图生视频、
图片上传、提示词优化、故事板、批量任务、任务管理、历史记录、预设、
队列与模型切换，并支持通过 SSE 实时跟踪任务进度。

所有结果以缩进 JSON 写到标准输出，进度与日志写到标准错误。
命令失败时打印错误并以状态码 1 退出。

# 配置

配置按 默认值 → YAML 文件（--config）→ EASYVIDEO_ 环境变量 → 命令行
参数 的顺序合并。--metrics-addr 启用时通过 internal/server 在该地址暴露
Prometheus /metrics，端口无法监听时命令直接失败。--journal 指定本地
SQLite 任务记录文件；--cache 指定 Redis 地址，缓存模型与预设列表，
Redis 不可用时自动退回直接请求。

# 主要命令

  - image / video / upload / optimize / storyboard / batch：提交生成请求，
    image 与 video 支持 --wait 等待任务完成。
  - task status|cancel|retry、tasks、watch：任务查询与进度跟踪。
  - history、stats、delete、download：生成记录管理。
  - presets、queue、models、switch-model：预设、队列与模型管理。
  - journal list|prune|forget：本地任务记录；watch 不带参数时跟踪
    记录中未结束的任务。
*/
package main
