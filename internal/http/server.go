package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/smsystem2000/sm-auth-services/internal/auth"
	"github.com/smsystem2000/sm-auth-services/internal/config"
	"github.com/smsystem2000/sm-auth-services/internal/metrics"
	"github.com/smsystem2000/sm-auth-services/internal/model"
	"github.com/smsystem2000/sm-auth-services/internal/store"
	"github.com/smsystem2000/sm-auth-services/internal/token"
)

// Rejection messages stay generic so a caller cannot learn which of
// school, role, email or password was wrong. An unknown school gets the
// same response as a credential mismatch.
const (
	msgMissingAdminFields  = "username and password are required"
	msgMissingLoginFields  = "email, password, role, and schoolId are required"
	msgInvalidAdminLogin   = "invalid username or password"
	msgInvalidSchoolLogin  = "invalid email or password"
	msgInvalidRole         = "invalid role"
	msgSchoolInactive      = "this school is currently inactive"
	msgAccountInactive     = "your account is currently inactive"
	msgInvalidToken        = "invalid or expired token"
	msgDuplicateUsername   = "username already exists"
	msgServerError         = "internal server error"
	msgLoginSuccessful     = "login successful"
	msgTokenValid          = "token is valid"
	msgAdminCreated        = "admin created successfully"
	msgMissingAdminPayload = "username, email, and password are required"
)

type Server struct {
	cfg     config.Config
	svc     *auth.Service
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewServer(cfg config.Config, svc *auth.Service, logger *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{cfg: cfg, svc: svc, logger: logger, metrics: m}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleAdminLogin)
	r.Post("/auth/school-login", s.handleSchoolLogin)
	r.Get("/auth/verify", s.handleVerify)

	r.With(s.authMiddleware, s.requireSuperAdmin).Post("/auth/admins", s.handleCreateAdmin)
	r.With(s.authMiddleware, s.requireSuperAdmin).Get("/auth/email-lookup", s.handleEmailLookup)

	return r
}

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type schoolLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	SchoolID string `json:"schoolId"`
}

type createAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type adminSummary struct {
	AdminID  string `json:"adminId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type userSummary struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SchoolID  string `json:"schoolId"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingAdminFields)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgMissingAdminFields)
		return
	}

	issued, admin, err := s.svc.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("admin", "rejected").Inc()
		if errors.Is(err, auth.ErrInvalidCredential) {
			writeError(w, http.StatusUnauthorized, msgInvalidAdminLogin)
			return
		}
		s.logger.Error("admin login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.metrics.LoginAttempts.WithLabelValues("admin", "success").Inc()
	writeSuccess(w, http.StatusOK, msgLoginSuccessful, map[string]interface{}{
		"token": issued,
		"admin": adminSummary{
			AdminID:  admin.AdminID,
			Username: admin.Username,
			Role:     admin.Role,
		},
	})
}

func (s *Server) handleSchoolLogin(w http.ResponseWriter, r *http.Request) {
	var req schoolLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingLoginFields)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Role = strings.TrimSpace(req.Role)
	req.SchoolID = strings.TrimSpace(req.SchoolID)
	if req.Email == "" || req.Password == "" || req.Role == "" || req.SchoolID == "" {
		writeError(w, http.StatusBadRequest, msgMissingLoginFields)
		return
	}

	issued, user, err := s.svc.SchoolLogin(r.Context(), req.Email, req.Password, req.Role, req.SchoolID)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("school", "rejected").Inc()
		s.writeSchoolLoginError(w, req, err)
		return
	}

	s.metrics.LoginAttempts.WithLabelValues("school", "success").Inc()
	writeSuccess(w, http.StatusOK, msgLoginSuccessful, map[string]interface{}{
		"token": issued,
		"user": userSummary{
			UserID:    user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Role:      user.Role,
			SchoolID:  req.SchoolID,
		},
	})
}

func (s *Server) writeSchoolLoginError(w http.ResponseWriter, req schoolLoginRequest, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, msgInvalidRole)
	case errors.Is(err, auth.ErrSchoolNotFound):
		// Indistinguishable from a credential mismatch on purpose.
		s.logger.Warn("login for unknown school", zap.String("school_id", req.SchoolID))
		writeError(w, http.StatusUnauthorized, msgInvalidSchoolLogin)
	case errors.Is(err, auth.ErrSchoolInactive):
		writeError(w, http.StatusForbidden, msgSchoolInactive)
	case errors.Is(err, auth.ErrAccountInactive):
		writeError(w, http.StatusForbidden, msgAccountInactive)
	case errors.Is(err, auth.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, msgInvalidSchoolLogin)
	default:
		s.logger.Error("school login failed",
			zap.String("school_id", req.SchoolID),
			zap.String("role", req.Role),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		s.metrics.TokenVerifications.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	claims, err := s.svc.VerifyToken(raw)
	if err != nil {
		s.metrics.TokenVerifications.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	s.metrics.TokenVerifications.WithLabelValues("ok").Inc()
	writeSuccess(w, http.StatusOK, msgTokenValid, map[string]string{
		"userId":   claims.UserID,
		"handle":   claims.Handle,
		"role":     claims.Role,
		"schoolId": claims.SchoolID,
	})
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingAdminPayload)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgMissingAdminPayload)
		return
	}

	admin, err := s.svc.CreateAdmin(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			writeError(w, http.StatusBadRequest, msgDuplicateUsername)
			return
		}
		s.logger.Error("admin creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeSuccess(w, http.StatusCreated, msgAdminCreated, adminSummary{
		AdminID:  admin.AdminID,
		Username: admin.Username,
		Role:     admin.Role,
	})
}

func (s *Server) handleEmailLookup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	record, err := s.svc.LookupEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "email not found")
			return
		}
		s.logger.Error("email lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeSuccess(w, http.StatusOK, "email found", map[string]string{
		"email":    record.Email,
		"role":     record.Role,
		"schoolId": record.SchoolID,
		"userId":   record.UserID,
		"status":   record.Status,
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		claims, err := s.svc.VerifyToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != model.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, "super admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *token.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*token.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
