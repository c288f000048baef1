package model

import "GreenSnapAPI/internal/entity"

type UserDTO struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type OwnerSummaryDTO struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image,omitempty"`
}

func ToUserDTO(u *entity.User) *UserDTO {
	return &UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
	}
}

func ToOwnerSummaryDTO(s *entity.OwnerSummary) *OwnerSummaryDTO {
	if s == nil {
		return nil
	}
	return &OwnerSummaryDTO{
		ID:           s.ID,
		Username:     s.Username,
		ProfileImage: s.ProfileImage,
	}
}
