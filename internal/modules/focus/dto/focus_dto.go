package dto

type CompleteSessionInput struct {
	Minutes int    `json:"minutes" binding:"required,gte=1,lte=600"`
	Label   string `json:"label" binding:"omitempty,max=100"`
	Kind    string `json:"kind" binding:"omitempty,oneof=wellness challenge"`
}
