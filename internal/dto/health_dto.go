package dto

// GetHealthRequest has no body
type GetHealthRequest struct{}

// GetHealthResponse reports service health, including the downstream ML
// service
type GetHealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	UptimeSec      int64  `json:"uptime"`
	EnrichMLStatus string `json:"enrich_ml_status"`
}
