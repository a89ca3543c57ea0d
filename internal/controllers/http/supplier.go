package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/infra/cj"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	defaultShipFrom = "CN"
)

func (h *Handler) SearchSupplierProducts(c *gin.Context) {
	page, err := queryInt(c, "page", defaultPage)
	if err != nil {
		badRequest(c, err)
		return
	}
	size, err := queryInt(c, "pageSize", defaultPageSize)
	if err != nil {
		badRequest(c, err)
		return
	}

	raw, err := h.supplier.SearchProducts(c.Request.Context(), cj.ProductQuery{
		Keyword:    c.Query("keyword"),
		CategoryID: c.Query("categoryId"),
		PageNum:    page,
		PageSize:   size,
	})
	h.proxy(c, raw, err)
}

func (h *Handler) GetSupplierProduct(c *gin.Context) {
	raw, err := h.supplier.GetProduct(c.Request.Context(), c.Param("pid"))
	h.proxy(c, raw, err)
}

func (h *Handler) GetSupplierCategories(c *gin.Context) {
	raw, err := h.supplier.GetCategories(c.Request.Context())
	h.proxy(c, raw, err)
}

func (h *Handler) CalculateShipping(c *gin.Context) {
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if to == "" {
		badRequest(c, fmt.Errorf("query parameter to is required"))
		return
	}
	from := strings.ToUpper(c.DefaultQuery("from", defaultShipFrom))

	var weight float64
	if w := c.Query("weight"); w != "" {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil || v < 0 {
			badRequest(c, fmt.Errorf("invalid weight %q", w))
			return
		}
		weight = v
	}

	raw, err := h.supplier.CalculateFreight(c.Request.Context(), cj.FreightQuery{
		StartCountryCode: from,
		EndCountryCode:   to,
		ProductWeight:    weight,
	})
	h.proxy(c, raw, err)
}

func (h *Handler) GetTracking(c *gin.Context) {
	raw, err := h.supplier.GetTracking(c.Request.Context(), c.Param("trackingNumber"))
	h.proxy(c, raw, err)
}

func (h *Handler) proxy(c *gin.Context, raw json.RawMessage, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
