package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type AlphaPressureRequest struct {
	Netuids string `query:"netuids" json:"netuids"`
	Sort    string `query:"sort" json:"sort" default:"pressure" validate:"oneof=pressure emission flow"`
	Limit   int    `query:"limit" json:"limit" default:"150" validate:"gte=1,lte=1000"`
}

type HistoryRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"96" validate:"gte=1,lte=672"`
	Source string `query:"source" json:"source" default:"kv" validate:"oneof=kv archive"`
	Days   int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}

type CMCRequest struct {
	Type string `query:"type" json:"type" validate:"required,oneof=fng tao global"`
}

type TaostatsRequest struct {
	Endpoint string `query:"endpoint" json:"endpoint" validate:"required"`
}
