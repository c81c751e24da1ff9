package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/budgetmate/budgetmate/internal/database"
	"github.com/budgetmate/budgetmate/internal/rest"
	"github.com/budgetmate/budgetmate/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const UserIdHeader = "X-User-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(requestLogger)

	// Propagate X-User-Id header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userIdHeader := req.Header.Get(UserIdHeader)
			ctx := req.Context()

			if userIdHeader != "" {
				u, err := deps.UserService.GetUserByUid(ctx, userIdHeader)
				if err != nil {
					switch {
					case errors.Is(err, user.ErrUserNotFound):
						log.Debugf("user not found: %s", userIdHeader)
						rest.WriteError(w, http.StatusForbidden, "User not found", "")
					case errors.Is(err, database.ErrStorageUnavailable):
						rest.WriteError(w, http.StatusServiceUnavailable, "Storage unavailable", "")
					default:
						log.Errorf("failed to get user: %v", err)
						http.Error(w, err.Error(), http.StatusInternalServerError)
					}
					return
				}
				log.Tracef("user found: %s", u.Uid)
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, req)
		log.WithFields(log.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   recorder.status,
			"duration": time.Since(started),
		}).Debug("request handled")
	})
}
