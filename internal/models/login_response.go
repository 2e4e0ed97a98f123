package models

type LoginResponse struct {
	User  ProfileResponse `json:"user"`
	Token string          `json:"token"`
}
