package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/workdesk-hq/attendance-backend-go/internal/domain/employee"
	"github.com/workdesk-hq/attendance-backend-go/internal/handler/http/response"
)

// AdminOnly requires the admin role
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, employee.ErrAdminAccessRequired)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != string(employee.RoleAdmin) {
			response.HandleError(w, employee.ErrAdminAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
