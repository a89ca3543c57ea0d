package cj

import "encoding/json"

// envelope wraps every CJ API response.
type envelope struct {
	Code      int             `json:"code"`
	Result    bool            `json:"result"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

type tokenData struct {
	AccessToken            string `json:"accessToken"`
	AccessTokenExpiryDate  string `json:"accessTokenExpiryDate"`
	RefreshToken           string `json:"refreshToken"`
	RefreshTokenExpiryDate string `json:"refreshTokenExpiryDate"`
}

type CreateOrderRequest struct {
	OrderNumber          string         `json:"orderNumber"`
	ShippingZip          string         `json:"shippingZip,omitempty"`
	ShippingCountryCode  string         `json:"shippingCountryCode"`
	ShippingProvince     string         `json:"shippingProvince"`
	ShippingCity         string         `json:"shippingCity"`
	ShippingAddress      string         `json:"shippingAddress"`
	ShippingCustomerName string         `json:"shippingCustomerName"`
	ShippingPhone        string         `json:"shippingPhone"`
	Remark               string         `json:"remark,omitempty"`
	FromCountryCode      string         `json:"fromCountryCode"`
	LogisticName         string         `json:"logisticName"`
	Products             []OrderProduct `json:"products"`
}

type OrderProduct struct {
	Vid      string `json:"vid"`
	Quantity int    `json:"quantity"`
}

type CreateOrderResult struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	OrderStatus string `json:"orderStatus"`
}

type ProductQuery struct {
	Keyword    string
	CategoryID string
	PageNum    int
	PageSize   int
}

type FreightQuery struct {
	StartCountryCode string         `json:"startCountryCode"`
	EndCountryCode   string         `json:"endCountryCode"`
	ProductWeight    float64        `json:"productWeight,omitempty"`
	Products         []OrderProduct `json:"products,omitempty"`
}
