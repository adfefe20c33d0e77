package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"

	"gocg-permutas/internal/model"
	"gocg-permutas/internal/repository"
)

// readPassword is swapped out in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

const (
	minPasswordLen   = 6
	maxPasswordBytes = 72
)

type adminOptions struct {
	RG            string
	Grad          string
	Quadro        string
	Nome          string
	Unidade       string
	ResetPassword bool
}

type bootstrapResult struct {
	Created       bool
	PasswordReset bool
}

// bootstrap upserts the roster entry tagged admin and then the usuario.
// The password is only asked for when one is going to be written.
func bootstrap(
	ctx context.Context,
	militares repository.MilitarRepository,
	usuarios repository.UsuarioRepository,
	opts adminOptions,
	password func() (string, error),
) (*bootstrapResult, error) {
	if strings.TrimSpace(opts.RG) == "" {
		return nil, errors.New("rg is required")
	}

	role := model.RoleAdmin
	actor := opts.RG
	if err := militares.Upsert(ctx, &model.Militar{
		RG:        opts.RG,
		Grad:      opts.Grad,
		Quadro:    opts.Quadro,
		Nome:      opts.Nome,
		Unidade:   opts.Unidade,
		Role:      &role,
		BaseModel: model.BaseModel{CreatedBy: &actor, UpdatedBy: &actor},
	}); err != nil {
		return nil, fmt.Errorf("upsert militar: %w", err)
	}

	existing, err := usuarios.GetByRG(ctx, opts.RG)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load usuario: %w", err)
	}

	res := &bootstrapResult{Created: existing == nil}
	u := &model.Usuario{
		RG:        opts.RG,
		Role:      model.RoleAdmin,
		Grad:      opts.Grad,
		Quadro:    opts.Quadro,
		Nome:      opts.Nome,
		Unidade:   opts.Unidade,
		UpdatedAt: time.Now(),
	}

	if existing != nil && !opts.ResetPassword {
		u.PasswordHash = existing.PasswordHash
		u.CreatedAt = existing.CreatedAt
	} else {
		plain, err := password()
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		u.CreatedAt = time.Now()
		if existing != nil {
			u.CreatedAt = existing.CreatedAt
			res.PasswordReset = true
		}
	}

	if err := usuarios.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("upsert usuario: %w", err)
	}
	return res, nil
}

// promptPassword reads the password twice without echo.
func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(w, "Senha: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Confirme a senha: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) < minPasswordLen {
		return "", fmt.Errorf("password must have at least %d characters", minPasswordLen)
	}
	if len(first) > maxPasswordBytes {
		return "", fmt.Errorf("password must have at most %d bytes", maxPasswordBytes)
	}
	return string(first), nil
}
