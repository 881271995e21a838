package search

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"HibiscusSOS/internal/models"
)

var ErrClosed = errors.New("search index closed")

// textSearchFields 关键字查询覆盖的文本字段
var textSearchFields = []string{"transcript", "aiReasoning", "videoAnalysis", "fullAddress"}

// Config 历史索引配置
type Config struct {
	// IndexPath 索引目录；为空时使用纯内存索引（进程退出即失效，
	// 与状态仓库的生命周期一致）
	IndexPath string

	// QueryTimeout 单次查询的超时
	QueryTimeout time.Duration
}

// Query 历史告警查询
type Query struct {
	// Keyword 在转写、AI分析、视频分析和地址中全文匹配；为空时仅按过滤条件查
	Keyword string `json:"keyword" form:"q"`

	// Severity 按告警级别过滤
	Severity string `json:"severity" form:"severity"`

	// Resolution 按归档方式过滤（Resolved / Rejected）
	Resolution string `json:"resolution" form:"resolution"`

	// UserID 按上报用户过滤
	UserID string `json:"userId" form:"userId"`

	From int `json:"from" form:"from"`
	Size int `json:"size" form:"size"`
}

// Hit 单条命中
type Hit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Fields    map[string]any      `json:"fields"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Result 查询结果
type Result struct {
	Total uint64        `json:"total"`
	Took  time.Duration `json:"took"`
	Hits  []Hit         `json:"hits"`
}

// HistoryIndex 归档告警的全文索引。告警归档时写入，之后不再变化。
type HistoryIndex struct {
	cfg    Config
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
}

// New 打开或创建历史索引
func New(cfg Config) (*HistoryIndex, error) {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 3 * time.Second
	}

	var idx bleve.Index
	if cfg.IndexPath == "" {
		i, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, err
		}
		idx = i
	} else if _, err := os.Stat(cfg.IndexPath); err == nil {
		i, e := bleve.Open(cfg.IndexPath)
		if e != nil {
			return nil, e
		}
		idx = i
	} else if os.IsNotExist(err) {
		i, e := bleve.New(cfg.IndexPath, buildIndexMapping())
		if e != nil {
			return nil, e
		}
		idx = i
	} else {
		return nil, err
	}

	return &HistoryIndex{cfg: cfg, index: idx}, nil
}

func (h *HistoryIndex) guard() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	return nil
}

// IndexAlert 写入一条归档告警
func (h *HistoryIndex) IndexAlert(ctx context.Context, alert *models.Alert) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.withDeadline(ctx, func(ctx context.Context) error {
		return h.index.Index(alert.ID, alertDoc(alert))
	})
}

// Delete 删除一条索引记录
func (h *HistoryIndex) Delete(ctx context.Context, id string) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.withDeadline(ctx, func(ctx context.Context) error {
		return h.index.Delete(id)
	})
}

// Search 查询历史告警
func (h *HistoryIndex) Search(ctx context.Context, q Query) (Result, error) {
	if err := h.guard(); err != nil {
		return Result{}, err
	}

	sr := bleve.NewSearchRequest(buildQuery(q))
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.From < 0 {
		q.From = 0
	}
	sr.Size = q.Size
	sr.From = q.From
	sr.Fields = []string{"*"}
	if q.Keyword != "" {
		sr.Highlight = bleve.NewHighlightWithStyle("html")
	}

	var res *bleve.SearchResult
	err := h.withDeadline(ctx, func(ctx context.Context) error {
		r, e := h.index.Search(sr)
		if e != nil {
			return e
		}
		res = r
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	out := Result{
		Total: res.Total,
		Took:  res.Took,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:        hit.ID,
			Score:     hit.Score,
			Fields:    hit.Fields,
			Fragments: hit.Fragments,
		})
	}
	return out, nil
}

// DocCount 已索引的告警数
func (h *HistoryIndex) DocCount() (uint64, error) {
	if err := h.guard(); err != nil {
		return 0, err
	}
	return h.index.DocCount()
}

// Close 关闭索引
func (h *HistoryIndex) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.index.Close()
}

func (h *HistoryIndex) withDeadline(ctx context.Context, fn func(context.Context) error) error {
	if h.cfg.QueryTimeout <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, h.cfg.QueryTimeout)
	defer cancel()
	ch := make(chan error, 1)
	go func() { ch <- fn(c) }()
	select {
	case <-c.Done():
		return c.Err()
	case err := <-ch:
		return err
	}
}

// alertDoc 把告警摊平成索引文档
func alertDoc(a *models.Alert) map[string]any {
	doc := map[string]any{
		"type":       "alert",
		"location":   a.Location,
		"userId":     a.UserID,
		"status":     string(a.Status),
		"timestamp":  a.Timestamp,
		"transcript": a.Transcript,
	}
	if a.AIReasoning != "" {
		doc["aiReasoning"] = a.AIReasoning
	}
	if a.VideoAnalysis != "" {
		doc["videoAnalysis"] = a.VideoAnalysis
	}
	if a.FullAddress != nil {
		doc["fullAddress"] = *a.FullAddress
	}
	if a.ResolutionType != "" {
		doc["resolutionType"] = string(a.ResolutionType)
	}
	if a.ResolvedAt != nil {
		doc["resolvedAt"] = *a.ResolvedAt
	}
	return doc
}
