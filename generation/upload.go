package generation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/BaSui01/easyvideo/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const uploadField = "image"

// UploadImage 以 multipart/form-data 上传图片，表单字段名为 image.
//
// onProgress may be nil. It is called from the goroutine writing the request
// body, with strictly increasing fractions ending in exactly 1.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader, onProgress UploadProgressFunc) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, types.NewError(types.ErrInvalidRequest, "文件名不能为空").WithOperation(opUploadImage.Name)
	}
	if r == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "图片内容不能为空").WithOperation(opUploadImage.Name)
	}

	body, contentType, err := buildMultipart(filename, r)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, opUploadImage.Fallback).
			WithCause(err).WithOperation(opUploadImage.Name)
	}

	path := apiPrefix + "/upload-image"
	var out *UploadResult
	err = c.observe(ctx, opUploadImage, http.MethodPost, path, func(ctx context.Context, span trace.Span) error {
		total := int64(body.Len())
		span.SetAttributes(attribute.Int64("upload.bytes", total))

		pr := &progressReader{r: body, total: total, fn: onProgress}
		req, err := c.newRequest(ctx, opUploadImage, http.MethodPost, path, nil, pr)
		if err != nil {
			return err
		}
		req.ContentLength = total
		req.Header.Set("Content-Type", contentType)

		resp, err := c.do(ctx, opUploadImage, c.uploadClient, req)
		c.metrics.RecordUpload(pr.sent.Load())
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		out, err = decodeEnvelope[UploadResult](resp, opUploadImage, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("image uploaded", zap.String("filename", filename), zap.String("image_id", out.ImageID))
	return out, nil
}

// UploadImageFile 从磁盘读取并上传图片.
func (c *Client) UploadImageFile(ctx context.Context, path string, onProgress UploadProgressFunc) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("无法读取文件 %s", path)).
			WithCause(err).WithOperation(opUploadImage.Name)
	}
	defer f.Close()
	return c.UploadImage(ctx, filepath.Base(path), f, onProgress)
}

// buildMultipart buffers the form so the body length is known up front.
func buildMultipart(filename string, r io.Reader) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filename))
	h.Set("Content-Type", imageContentType(filename))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func imageContentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// progressReader reports the fraction of total read so far. Read runs on
// the transport's writer goroutine; sent is read back by the caller.
type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	last  float64
	fn    UploadProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.report(p.sent.Add(int64(n)))
	}
	return n, err
}

func (p *progressReader) report(sent int64) {
	if p.fn == nil {
		return
	}
	frac := 1.0
	if p.total > 0 && sent < p.total {
		frac = float64(sent) / float64(p.total)
	}
	if frac > p.last {
		p.last = frac
		p.fn(frac)
	}
}
