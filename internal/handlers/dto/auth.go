package dto

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=50"`
	Password  string `json:"password" binding:"required,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
