package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/BaSui01/easyvideo/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetGenerationHistory 分页查询生成历史.
func (c *Client) GetGenerationHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	return call[HistoryPage](ctx, c, opGetHistory, http.MethodGet, apiPrefix+"/history", q.Values(), nil)
}

// GetStats 获取生成统计.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	return call[Stats](ctx, c, opGetStats, http.MethodGet, apiPrefix+"/stats", nil, nil)
}

// DeleteGeneration 删除一条生成记录.
func (c *Client) DeleteGeneration(ctx context.Context, kind Kind, id string) error {
	path, err := recordPath(opDeleteGeneration, kind, id)
	if err != nil {
		return err
	}
	return c.callVoid(ctx, opDeleteGeneration, http.MethodDelete, path, nil)
}

// Download 把生成结果写入 w，返回写入字节数.
//
// A JSON response whose success member is false is treated as an envelope
// error; any other body, JSON documents included, is the artifact itself.
func (c *Client) Download(ctx context.Context, kind Kind, id string, w io.Writer) (int64, error) {
	path, err := recordPath(opDownload, kind, id)
	if err != nil {
		return 0, err
	}
	path += "/download"

	var written int64
	err = c.observe(ctx, opDownload, http.MethodGet, path, func(ctx context.Context, span trace.Span) error {
		req, err := c.newRequest(ctx, opDownload, http.MethodGet, path, nil, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "*/*")
		resp, err := c.do(ctx, opDownload, c.uploadClient, req)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

		if resp.StatusCode >= 400 {
			_, err := decodeEnvelope[json.RawMessage](resp, opDownload, false)
			if err == nil {
				err = nonEnvelopeError(nil, resp.StatusCode, opDownload, nil)
			}
			return err
		}
		defer resp.Body.Close()

		if isJSON(resp.Header.Get("Content-Type")) {
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
			if err != nil {
				return types.NewError(types.ErrConnectionFailed, msgBodyReadFailed).
					WithCause(err).WithRetryable(true).WithOperation(opDownload.Name)
			}
			if failed := failedEnvelope(body); failed {
				_, err := unwrap[json.RawMessage](body, resp.StatusCode, opDownload, false)
				return err
			}
			n, err := io.Copy(w, bytes.NewReader(body))
			written = n
			return err
		}

		n, err := io.Copy(w, resp.Body)
		written = n
		if err != nil {
			if ctx.Err() != nil {
				return canceledError(opDownload, ctx.Err())
			}
			return types.NewError(types.ErrConnectionFailed, opDownload.Fallback).
				WithCause(err).WithRetryable(true).WithOperation(opDownload.Name)
		}
		return nil
	})
	return written, err
}

func recordPath(op operation, kind Kind, id string) (string, error) {
	k, err := pathSegment(op, string(kind), msgInvalidKind)
	if err != nil {
		return "", err
	}
	i, err := pathSegment(op, id, msgInvalidID)
	if err != nil {
		return "", err
	}
	return apiPrefix + "/" + k + "/" + i, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json"
}

// failedEnvelope reports whether body is an envelope with success=false.
func failedEnvelope(body []byte) bool {
	var head struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &head); err != nil || head.Success == nil {
		return false
	}
	return !*head.Success
}
