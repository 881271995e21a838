package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"HibiscusSOS/internal/store"
	"HibiscusSOS/pkg/config"
	"HibiscusSOS/pkg/llm"
	"HibiscusSOS/pkg/search"
	stores "HibiscusSOS/pkg/storage"
)

// Geocoder 反向地理编码能力，pkg/geocode.Resolver 是默认实现。
// City 按来源IP做粗粒度定位，无GeoIP库时返回空串。
type Geocoder interface {
	Reverse(ctx context.Context, location string) string
	City(ip string) string
}

// Handlers REST侧路。实时通路走WebSocket，这里只提供
// 健康检查、只读快照、检索和上游服务的HTTP入口。
type Handlers struct {
	store      *store.Store
	index      *search.HistoryIndex // 可为nil（检索未启用）
	classifier llm.Classifier       // 可为nil（未配置API key）
	geocoder   Geocoder
	evidence   stores.Store // 可为nil（未配置对象存储）
	startedAt  time.Time
}

func NewHandlers(st *store.Store, index *search.HistoryIndex, classifier llm.Classifier, geocoder Geocoder, evidence stores.Store) *Handlers {
	return &Handlers{
		store:      st,
		index:      index,
		classifier: classifier,
		geocoder:   geocoder,
		evidence:   evidence,
		startedAt:  time.Now(),
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.HealthCheck)

	r := engine.Group(config.GlobalConfig.APIPrefix)

	h.registerSystemRoutes(r)

	r.POST("/classify", h.HandleClassify)
	r.GET("/geocode/reverse", h.HandleReverseGeocode)
	r.POST("/evidence", h.HandleEvidenceUpload)
	r.GET("/history/search", h.HandleHistorySearch)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
	r.GET("/snapshot", h.GetSnapshot)
}
