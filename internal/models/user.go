package models

type User struct {
	ID        string  `json:"id" db:"id"`
	Username  string  `json:"username" db:"username"`
	Password  string  `json:"-" db:"password"` // Never return password in JSON
	Name      string  `json:"name" db:"name"`
	Points    int     `json:"points" db:"points"` // Cached balance; point_history is authoritative
	FCMToken  *string `json:"-" db:"fcm_token"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt int64   `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	CreatedAt int64  `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest is the request body for POST /api/register
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// UpdateProfileRequest is the request body for PATCH /api/users/me
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty"`
}

// UpdateFCMTokenRequest is the request body for PUT /api/users/me/fcm-token
type UpdateFCMTokenRequest struct {
	Token string `json:"token"`
}
