package video

// CreateVideoRequest mirrors the request shape of provider-style video APIs
// so generated videos can be driven by clients that already speak it.
type CreateVideoRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	Model       string `json:"model"`
	Orientation string `json:"orientation"`
	Image       string `json:"image"`
}

// VideoResponse exposes the external status vocabulary only: queued,
// processing, completed, failed.
type VideoResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}
