package api

// Account service endpoints
const (
	// Public authentication endpoints
	AuthRegister       = "/api/auth/register"
	AuthLogin          = "/api/auth/login"
	AuthVerify         = "/api/auth/verify"
	AuthResendCode     = "/api/auth/resend-code"
	AuthForgotPassword = "/api/auth/forgot-password"
	AuthResetPassword  = "/api/auth/reset-password"
	AuthRefresh        = "/api/auth/refresh"

	// Session-protected endpoints
	UserProfile  = "/api/user/profile"
	UserPassword = "/api/user/password"
	UserLogout   = "/api/user/logout"

	// Admin console endpoints
	AdminUsers = "/api/admin/users"
	AdminStats = "/api/admin/stats"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	AuthRegister:       true,
	AuthLogin:          true,
	AuthVerify:         true,
	AuthResendCode:     true,
	AuthForgotPassword: true,
	AuthResetPassword:  true,
	AuthRefresh:        true,
}
