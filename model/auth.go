package model

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	IsStaff  bool   `json:"is_staff"`
}

func (u User) IsAdmin() bool {
	return u.UserType == "admin" || u.IsStaff
}
