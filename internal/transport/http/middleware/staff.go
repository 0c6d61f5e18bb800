package middleware

import (
	"log"
	"net/http"

	"github.com/mvucic/todo-backend/internal/repository"
)

// Staff gates a route to is_staff users. Must run after Auth; the staff flag
// is read from the user row, not from the token, so revoking staff takes
// effect immediately.
func Staff(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())

			user, err := userRepo.GetByID(r.Context(), userID)
			if err != nil {
				log.Printf("ERROR staff check: %v", err)
				http.Error(w, `{"error":{"code":"INTERNAL","message":"Something went wrong"}}`, http.StatusInternalServerError)
				return
			}
			if user == nil || !user.IsStaff {
				http.Error(w, `{"error":{"code":"FORBIDDEN","message":"Staff access required"}}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
