package generation

import (
	"net/url"
	"strconv"

	"github.com/BaSui01/easyvideo/types"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// TaskQuery 任务列表查询参数.
type TaskQuery struct {
	Page   int
	Limit  int
	Status types.TaskStatus
	Type   types.TaskType
}

// Values encodes the query. page and limit are always present; status and
// type only when set.
func (q TaskQuery) Values() url.Values {
	v := pageValues(q.Page, q.Limit)
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	return v
}

// HistoryQuery 历史记录查询参数.
type HistoryQuery struct {
	Page  int
	Limit int
	Type  types.TaskType
}

// Values encodes the query with the same rules as TaskQuery.
func (q HistoryQuery) Values() url.Values {
	v := pageValues(q.Page, q.Limit)
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	return v
}

func pageValues(page, limit int) url.Values {
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}
