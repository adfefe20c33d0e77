package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocg-permutas/config"
	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/model"
	"gocg-permutas/internal/repository"
	"gocg-permutas/pkg/jwt"
)

// ── session errors ──

var (
	ErrNotRegistered     = errors.New("usuario not registered")
	ErrWrongPassword     = errors.New("wrong password")
	ErrAlreadyRegistered = errors.New("usuario already registered")
	ErrUnknownPersonnel  = errors.New("rg not in roster")
	ErrDataMismatch      = errors.New("registration data does not match roster")
)

// DataMismatchError lists the roster fields that differ from the ones
// submitted at registration.
type DataMismatchError struct {
	Fields []string
}

func (e *DataMismatchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDataMismatch, strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrDataMismatch) hold.
func (e *DataMismatchError) Is(target error) bool {
	return target == ErrDataMismatch
}

// AuthService session and identity operations.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.SessionResponse, error)
	Logout(ctx context.Context, jti string, exp time.Time) error
	CurrentUser(ctx context.Context, rg string) (*dto.SessionResponse, error)
	ChangePassword(ctx context.Context, rg string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	rg := strings.TrimSpace(req.RG)

	u, err := s.repo.Usuario.GetByRG(ctx, rg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		s.logger.Error("load usuario failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	if !checkPassword(u.PasswordHash, req.Password) {
		return nil, ErrWrongPassword
	}

	token, _, err := s.jwtMgr.GenerateToken(u.RG, u.Role)
	if err != nil {
		s.logger.Error("sign session token failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("login", zap.String("rg", u.RG), zap.String("role", u.Role))

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.TTL().Seconds()),
		User:        toSessionResponse(u),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.SessionResponse, error) {
	rg := strings.TrimSpace(req.RG)

	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.Usuario.GetByRG(ctx, rg); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("load usuario failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	m, err := s.repo.Militar.GetByRG(ctx, rg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownPersonnel
		}
		s.logger.Error("load militar failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	// quadro is exempt
	var mismatched []string
	if normalize(req.Grad) != normalize(m.Grad) {
		mismatched = append(mismatched, "grad")
	}
	if normalize(req.Nome) != normalize(m.Nome) {
		mismatched = append(mismatched, "nome")
	}
	if normalize(req.Unidade) != normalize(m.Unidade) {
		mismatched = append(mismatched, "unidade")
	}
	if len(mismatched) > 0 {
		return nil, &DataMismatchError{Fields: mismatched}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	role := model.RoleUser
	if s.cfg.Auth.IsAdminRG(rg) {
		role = model.RoleAdmin
	}

	u := &model.Usuario{
		RG:           rg,
		PasswordHash: hash,
		Role:         role,
		Grad:         strings.TrimSpace(req.Grad),
		Quadro:       strings.TrimSpace(req.Quadro),
		Nome:         strings.TrimSpace(req.Nome),
		Unidade:      strings.TrimSpace(req.Unidade),
	}
	if err := s.repo.Usuario.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		s.logger.Error("create usuario failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	s.logger.Info("usuario registered", zap.String("rg", rg), zap.String("role", role))

	resp := toSessionResponse(u)
	return &resp, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, exp time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
		s.logger.Error("blacklist token failed", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CurrentUser ──────────────────────

func (s *authService) CurrentUser(ctx context.Context, rg string) (*dto.SessionResponse, error) {
	u, err := s.repo.Usuario.GetByRG(ctx, rg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		s.logger.Error("load usuario failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}
	resp := toSessionResponse(u)
	return &resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, rg string, req *dto.ChangePasswordRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	u, err := s.repo.Usuario.GetByRG(ctx, rg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotRegistered
		}
		return err
	}

	if !checkPassword(u.PasswordHash, req.OldPassword) {
		return ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return err
	}

	if err := s.repo.Usuario.UpdatePassword(ctx, rg, hash); err != nil {
		s.logger.Error("update password failed", zap.String("rg", rg), zap.Error(err))
		return err
	}
	return nil
}

func toSessionResponse(u *model.Usuario) dto.SessionResponse {
	return dto.SessionResponse{
		RG:      u.RG,
		Role:    u.Role,
		Grad:    u.Grad,
		Quadro:  u.Quadro,
		Nome:    u.Nome,
		Unidade: u.Unidade,
	}
}
