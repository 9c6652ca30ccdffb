package generation

import (
	"strconv"
	"testing"

	"github.com/BaSui01/easyvideo/types"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTaskQuery_Values(t *testing.T) {
	v := TaskQuery{}.Values()
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.False(t, v.Has("status"))
	assert.False(t, v.Has("type"))

	v = TaskQuery{Page: 3, Limit: 5, Status: types.TaskStatusRunning, Type: types.TaskTypeStoryboard}.Values()
	assert.Equal(t, "limit=5&page=3&status=running&type=storyboard", v.Encode())
}

func TestHistoryQuery_Values(t *testing.T) {
	v := HistoryQuery{Page: -2, Limit: 0, Type: types.TaskTypeImageToVideo}.Values()
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.Equal(t, "image_to_video", v.Get("type"))
	assert.False(t, v.Has("status"))
}

// page/limit 总是存在且为正；status/type 仅在非空时出现且原样发送
func TestProperty_TaskQueryValues(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := TaskQuery{
			Page:   rapid.IntRange(-5, 1000).Draw(rt, "page"),
			Limit:  rapid.IntRange(-5, 500).Draw(rt, "limit"),
			Status: types.TaskStatus(rapid.SampledFrom([]string{"", "pending", "running", "completed", "weird status"}).Draw(rt, "status")),
			Type:   types.TaskType(rapid.SampledFrom([]string{"", "text_to_image", "storyboard", "a&b"}).Draw(rt, "type")),
		}
		v := q.Values()

		page, err := strconv.Atoi(v.Get("page"))
		if err != nil || page <= 0 {
			rt.Fatalf("page = %q", v.Get("page"))
		}
		if q.Page > 0 && page != q.Page {
			rt.Fatalf("page = %d, want %d", page, q.Page)
		}
		if q.Page <= 0 && page != defaultPage {
			rt.Fatalf("page default = %d", page)
		}

		limit, err := strconv.Atoi(v.Get("limit"))
		if err != nil || limit <= 0 {
			rt.Fatalf("limit = %q", v.Get("limit"))
		}
		if q.Limit <= 0 && limit != defaultLimit {
			rt.Fatalf("limit default = %d", limit)
		}

		if q.Status == "" && v.Has("status") {
			rt.Fatal("empty status must be omitted")
		}
		if q.Status != "" && v.Get("status") != string(q.Status) {
			rt.Fatalf("status = %q", v.Get("status"))
		}
		if q.Type == "" && v.Has("type") {
			rt.Fatal("empty type must be omitted")
		}
		if q.Type != "" && v.Get("type") != string(q.Type) {
			rt.Fatalf("type = %q", v.Get("type"))
		}
	})
}
