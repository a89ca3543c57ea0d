package http

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ValidateCoupon(c *gin.Context) {
	coupon, err := h.coupons.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, CouponValidationResponse{
		Valid:        true,
		Code:         coupon.Code,
		DiscountType: string(coupon.DiscountType),
		Value:        coupon.Value,
		ExpiryDate:   coupon.ExpiryDate,
	})
}

func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	coupon, err := h.coupons.Create(c.Request.Context(), services.CreateCouponInput{
		Code:         req.Code,
		DiscountType: domain.DiscountType(req.DiscountType),
		Value:        req.Value,
		ExpiryDate:   req.ExpiryDate,
		UsageLimit:   req.UsageLimit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *Handler) ListCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}
