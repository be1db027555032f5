package dto

// ── Auth DTOs ──

// RegisterRequest self-service registration. Only farmer and staff can self-register.
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone"    binding:"omitempty,ph_mobile"`
	Barangay string `json:"barangay" binding:"omitempty,max=100"`
	Role     string `json:"role"     binding:"required,oneof=farmer staff"`
}

// LoginRequest credential check. Role is an optional hint from the login form.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin staff farmer"`
}
