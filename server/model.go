package server

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// segmentForm POST /api/v1/segment 的表单字段
type segmentForm struct {
	Sensitivity  *float64 `form:"sensitivity"`
	MaxDimension *int     `form:"max_dimension"`
	SoftenRadius *int     `form:"soften_radius"`
	SampleStride *int     `form:"sample_stride"`

	Mode string `form:"mode" binding:"omitempty,oneof=alpha hard"`
	Fill string `form:"fill"`

	Background  string  `form:"background" binding:"omitempty,oneof=transparent solid linear radial image"`
	Color       string  `form:"color"`
	Stops       string  `form:"stops"`
	Angle       float64 `form:"angle"`
	Center      string  `form:"center"`
	BackdropURL string  `form:"backdrop_url" binding:"omitempty,url"`

	Format string `form:"format" binding:"omitempty,oneof=png jpeg jpg"`
}
