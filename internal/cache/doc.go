// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
包 cache 提供基于 Redis 的目录缓存，供生成客户端缓存模型列表与参数预设。

# 概述

Manager 封装 go-redis 客户端，所有键自动加上 KeyPrefix，值以 JSON 存储。
多台机器或多次 CLI 调用共享同一个 Redis 时，models 与 presets 命令
在 TTL 内直接命中缓存；switch-model 与预设的保存、删除会主动失效对应键。

# 核心类型

  - Manager：实现 generation.Cache，提供 GetJSON/SetJSON/Delete/Ping/Close。
  - Config：地址、密码、数据库编号、键前缀、默认 TTL 与连接池参数。

# 错误语义

未命中返回 ErrCacheMiss，可用 IsCacheMiss 判断；Manager 关闭后所有
操作返回 ErrClosed。
*/
package cache
