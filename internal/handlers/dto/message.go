package dto

// SendMessageRequest leaves body unchecked so the store reports an empty body itself.
type SendMessageRequest struct {
	ToUsername string `json:"to_username" binding:"required"`
	Body       string `json:"body"`
}
