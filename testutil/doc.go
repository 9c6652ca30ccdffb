// Copyright (c) EasyVideo Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 EasyVideo 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现相似的
测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertErrorCode / AssertJSONEqual
  - 异步断言: AssertEventuallyTrue / AssertEventuallyEqual / AssertNever
  - 通道工具: WaitFor / WaitForChannel / Collect
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: Backend，基于 httptest 的进程内生成后端，使用真实的
    {success,data,error} 包装与 SSE 进度流，支持脚本化响应与请求记录
  - testutil/fixtures: 任务、进度流脚本与包装响应样例

# 使用示例

	backend := mocks.NewBackend(t)
	client, _ := generation.New(generation.Config{BaseURL: backend.URL()}, zaptest.NewLogger(t))
	res, err := client.TextToImage(testutil.TestContext(t), req)
*/
package testutil
