package generation

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/BaSui01/easyvideo/testutil"
	"github.com/BaSui01/easyvideo/testutil/mocks"
	"github.com/BaSui01/easyvideo/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UploadImage(t *testing.T) {
	backend := mocks.NewBackend(t)
	rec := newRecorderStub()
	c := newTestClient(t, backend, WithMetrics(rec))

	content := bytes.Repeat([]byte("png-data"), 64*1024)

	var (
		mu        sync.Mutex
		fractions []float64
	)
	res, err := c.UploadImage(testutil.TestContext(t), "fox.png", bytes.NewReader(content), func(f float64) {
		mu.Lock()
		defer mu.Unlock()
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ImageID)
	assert.True(t, strings.HasSuffix(res.ImagePath, "_fox.png"))

	stored, ok := backend.Upload(res.ImageID)
	require.True(t, ok)
	assert.Equal(t, content, stored)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, fractions)
	for i, f := range fractions {
		assert.True(t, f > 0 && f <= 1, "fraction %v out of range", f)
		if i > 0 {
			assert.Greater(t, f, fractions[i-1], "progress must strictly increase")
		}
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])

	_, uploaded, _, _ := rec.snapshot()
	assert.Greater(t, uploaded, int64(len(content)))
}

// 表单先整体缓冲，请求带确定的 Content-Length 而不是分块传输
func TestClient_UploadImage_SendsContentLength(t *testing.T) {
	backend := mocks.NewBackend(t)
	var (
		mu            sync.Mutex
		contentLength int64
		bodyLen       int
		chunked       bool
	)
	backend.On(http.MethodPost, "/api/generation/upload-image", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		contentLength, bodyLen = r.ContentLength, len(body)
		chunked = len(r.TransferEncoding) > 0
		mu.Unlock()
		mocks.WriteEnvelope(w, http.StatusOK, map[string]any{"image_id": "img-1", "image_path": "uploads/img-1_fox.png"})
	})
	c := newTestClient(t, backend)

	_, err := c.UploadImage(testutil.TestContext(t), "fox.png", bytes.NewReader(bytes.Repeat([]byte("x"), 4096)), nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, chunked)
	assert.Equal(t, int64(bodyLen), contentLength)
	assert.Greater(t, contentLength, int64(4096))
}

func TestClient_UploadImage_MultipartShape(t *testing.T) {
	backend := mocks.NewBackend(t)
	c := newTestClient(t, backend)

	_, err := c.UploadImage(testutil.TestContext(t), "/tmp/dir/cat.JPG", strings.NewReader("jpeg"), nil)
	require.NoError(t, err)

	call := backend.CallsTo(http.MethodPost, "/api/generation/upload-image")[0]
	mediaType, params, err := mime.ParseMediaType(call.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(bytes.NewReader(call.Body), params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image", part.FormName())
	assert.Equal(t, "cat.JPG", part.FileName())
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_UploadImage_Invalid(t *testing.T) {
	backend := mocks.NewBackend(t)
	c := newTestClient(t, backend)
	ctx := testutil.TestContext(t)

	_, err := c.UploadImage(ctx, "", strings.NewReader("x"), nil)
	testutil.AssertErrorCode(t, err, types.ErrInvalidRequest)
	_, err = c.UploadImage(ctx, "a.png", nil, nil)
	testutil.AssertErrorCode(t, err, types.ErrInvalidRequest)
	_, err = c.UploadImageFile(ctx, filepath.Join(t.TempDir(), "missing.png"), nil)
	testutil.AssertErrorCode(t, err, types.ErrInvalidRequest)

	assert.Empty(t, backend.Calls())
}

func TestClient_UploadImageFile(t *testing.T) {
	backend := mocks.NewBackend(t)
	c := newTestClient(t, backend)

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("frame"), 0o600))

	res, err := c.UploadImageFile(testutil.TestContext(t), path, nil)
	require.NoError(t, err)
	stored, ok := backend.Upload(res.ImageID)
	require.True(t, ok)
	assert.Equal(t, "frame", string(stored))
}

func TestClient_UploadImage_ServerRejects(t *testing.T) {
	backend := mocks.NewBackend(t)
	backend.OnFailure(http.MethodPost, "/api/generation/upload-image", http.StatusRequestEntityTooLarge, "")
	c := newTestClient(t, backend)

	_, err := c.UploadImage(testutil.TestContext(t), "big.png", strings.NewReader("x"), nil)
	testutil.AssertErrorCode(t, err, types.ErrRequestFailed)
	assert.Equal(t, opUploadImage.Fallback, types.ErrorMessage(err))
}

func TestProgressReader(t *testing.T) {
	var got []float64
	pr := &progressReader{
		r:     iotest.OneByteReader(strings.NewReader("abcd")),
		total: 4,
		fn:    func(f float64) { got = append(got, f) },
	}
	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, got)
	assert.Equal(t, int64(4), pr.sent.Load())
}
