// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
包 journal 在本地 SQLite 文件中记录 CLI 提交过的生成任务。

# 概述

后端只按分页返回任务，客户端重启后无法知道"自己"提交过哪些任务。
Store 在每次提交时写入一条 Entry，等待或取消任务时更新状态，
watch 命令可据此恢复跟踪所有未结束的任务。

存储基于 GORM 与纯 Go 的 glebarez/sqlite 驱动，无需 CGO。
连接数固定为 1，满足 SQLite 单写者约束。

# 核心类型

  - Store：记录库，提供 Record/RecordAll/Update/Get/List/Delete/Prune/Close。
  - Entry：一条任务记录，task_id 为主键。
  - Filter：List 的过滤条件。
*/
package journal
