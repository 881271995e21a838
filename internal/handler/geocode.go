package handlers

import (
	"github.com/gin-gonic/gin"

	"HibiscusSOS/pkg/response"
)

// HandleReverseGeocode 反向地理编码：?location=lat,lng
// 缺坐标时退化为按来源IP的GeoIP城市定位；上游失败时返回降级地址，不报错。
func (h *Handlers) HandleReverseGeocode(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		if city := h.geocoder.City(c.ClientIP()); city != "" {
			response.Success(c, "resolved by ip", gin.H{"location": "", "fullAddress": city})
			return
		}
		response.Fail(c, "missing location", nil)
		return
	}

	addr := h.geocoder.Reverse(c.Request.Context(), location)
	response.Success(c, "resolved", gin.H{"location": location, "fullAddress": addr})
}
