package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smsystem2000/sm-auth-services/internal/config"
	"github.com/smsystem2000/sm-auth-services/internal/crypto"
	"github.com/smsystem2000/sm-auth-services/internal/model"
	"github.com/smsystem2000/sm-auth-services/internal/schema"
	"github.com/smsystem2000/sm-auth-services/internal/store"
	"github.com/smsystem2000/sm-auth-services/internal/token"
)

type GlobalStore interface {
	GetAdminByUsername(ctx context.Context, username string) (model.Admin, error)
	HighestAdminID(ctx context.Context) (string, error)
	CreateAdmin(ctx context.Context, admin model.Admin) error
	GetSchoolAdminByEmail(ctx context.Context, email string) (model.TenantUser, error)
	LookupEmail(ctx context.Context, email string) (model.EmailRecord, error)
}

type SchoolResolver interface {
	Resolve(ctx context.Context, schoolID string) (model.School, error)
}

type TenantStore interface {
	FindUserByEmail(ctx context.Context, sc schema.RoleSchema, email string) (model.TenantUser, error)
}

// StoreFunc yields the store handle for a school's database locator.
type StoreFunc func(ctx context.Context, locator string) (TenantStore, error)

// Service is the identity resolution and token issuance core. All
// methods are safe for concurrent use; CreateAdmin is the only one that
// writes and serializes its id allocation internally.
type Service struct {
	secret  string
	issuer  string
	ttl     time.Duration
	global  GlobalStore
	schools SchoolResolver
	stores  StoreFunc
	logger  *zap.Logger

	// adminMu serializes the highest-id read against the insert so two
	// simultaneous creations cannot observe the same highest id.
	adminMu sync.Mutex
}

func NewService(cfg config.Config, global GlobalStore, schools SchoolResolver, stores StoreFunc, logger *zap.Logger) *Service {
	return &Service{
		secret:  cfg.JWTSecret,
		issuer:  cfg.JWTIssuer,
		ttl:     cfg.TokenTTL,
		global:  global,
		schools: schools,
		stores:  stores,
		logger:  logger,
	}
}

// AdminLogin authenticates a global admin by username. Unknown username
// and wrong password collapse into the same rejection. Activation status
// is intentionally not enforced here; see the warning log below.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (string, model.Admin, error) {
	admin, err := s.global.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", model.Admin{}, ErrInvalidCredential
		}
		return "", model.Admin{}, err
	}

	if err := crypto.CheckPassword(admin.PasswordHash, password); err != nil {
		return "", model.Admin{}, ErrInvalidCredential
	}

	// The platform has never rejected inactive global admins at login.
	// Surfacing it loudly until product confirms the intended behavior.
	if admin.Status != model.StatusActive {
		s.logger.Warn("inactive global admin authenticated",
			zap.String("admin_id", admin.AdminID))
	}

	issued, err := token.New(s.secret, s.issuer, s.ttl, token.Claims{
		UserID: admin.AdminID,
		Handle: admin.Username,
		Role:   admin.Role,
	})
	if err != nil {
		return "", model.Admin{}, err
	}
	return issued, admin, nil
}

// SchoolLogin authenticates a school user. Each step is a hard stop:
// school resolution, school activation, role validation, identity
// lookup, account activation, credential match.
func (s *Service) SchoolLogin(ctx context.Context, email, password, role, schoolID string) (string, model.TenantUser, error) {
	school, err := s.schools.Resolve(ctx, schoolID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", model.TenantUser{}, ErrSchoolNotFound
		}
		return "", model.TenantUser{}, err
	}
	if school.Status != model.StatusActive {
		return "", model.TenantUser{}, ErrSchoolInactive
	}

	user, err := s.findSchoolUser(ctx, school, role, email)
	if err != nil {
		return "", model.TenantUser{}, err
	}
	user.Role = role

	if user.Status != model.StatusActive {
		return "", model.TenantUser{}, ErrAccountInactive
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return "", model.TenantUser{}, ErrInvalidCredential
	}

	issued, err := token.New(s.secret, s.issuer, s.ttl, token.Claims{
		UserID:   user.ID,
		Handle:   user.Email,
		Role:     role,
		SchoolID: school.SchoolID,
		SchoolDB: school.DBName,
	})
	if err != nil {
		return "", model.TenantUser{}, err
	}
	return issued, user, nil
}

// findSchoolUser selects the identity store for a role. School admins
// live in the global store even though they are school-scoped; the
// other roles resolve through the school's own database.
func (s *Service) findSchoolUser(ctx context.Context, school model.School, role, email string) (model.TenantUser, error) {
	if role == model.RoleSchoolAdmin {
		user, err := s.global.GetSchoolAdminByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return model.TenantUser{}, ErrInvalidCredential
			}
			return model.TenantUser{}, err
		}
		return user, nil
	}

	sc, ok := schema.ForRole(role)
	if !ok {
		return model.TenantUser{}, ErrInvalidRole
	}
	tenantStore, err := s.stores(ctx, school.DBName)
	if err != nil {
		return model.TenantUser{}, err
	}
	user, err := tenantStore.FindUserByEmail(ctx, sc, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.TenantUser{}, ErrInvalidCredential
		}
		return model.TenantUser{}, err
	}
	return user, nil
}

// VerifyToken decodes a session token. Malformed, tampered and expired
// tokens all fail the same way; the distinction is log-only.
func (s *Service) VerifyToken(tokenString string) (*token.Claims, error) {
	claims, err := token.Parse(s.secret, s.issuer, tokenString)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CreateAdmin allocates the next admin id and stores the new global
// admin. The mutex makes concurrent creations emit distinct ids; the
// store's unique constraints are the backstop.
func (s *Service) CreateAdmin(ctx context.Context, username, email, password, role string) (model.Admin, error) {
	if role == "" {
		role = model.RoleSuperAdmin
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	_, err := s.global.GetAdminByUsername(ctx, username)
	if err == nil {
		return model.Admin{}, ErrDuplicateUsername
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Admin{}, err
	}

	last, err := s.global.HighestAdminID(ctx)
	if err != nil {
		return model.Admin{}, err
	}
	adminID, err := nextAdminID(last)
	if err != nil {
		return model.Admin{}, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.Admin{}, err
	}

	admin := model.Admin{
		AdminID:      adminID,
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.global.CreateAdmin(ctx, admin); err != nil {
		return model.Admin{}, err
	}
	return admin, nil
}

// LookupEmail answers which school and role an email belongs to, from
// the global registry.
func (s *Service) LookupEmail(ctx context.Context, email string) (model.EmailRecord, error) {
	return s.global.LookupEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
