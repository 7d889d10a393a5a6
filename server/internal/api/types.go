package api

// HistoryPoint is one element of GET /api/history/{ride}.
type HistoryPoint struct {
	Time string `json:"time"`
	Wait int    `json:"wait"`
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Samples int    `json:"samples"`
}

// errorResponse is the standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}
