package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gocg-permutas/internal/model"
	"gocg-permutas/internal/repository"
	pkgerrors "gocg-permutas/pkg/errors"
)

// ── Mock MilitarRepository ──

type mockMilitarRepo struct {
	militares map[string]*model.Militar
	err       error
}

func newMockMilitarRepo(list ...model.Militar) *mockMilitarRepo {
	m := &mockMilitarRepo{militares: make(map[string]*model.Militar)}
	for i := range list {
		mm := list[i]
		m.militares[mm.RG] = &mm
	}
	return m
}

func (m *mockMilitarRepo) Create(_ context.Context, mil *model.Militar) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.militares[mil.RG]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *mil
	m.militares[mil.RG] = &cp
	return nil
}

func (m *mockMilitarRepo) GetByRG(_ context.Context, rg string) (*model.Militar, error) {
	if m.err != nil {
		return nil, m.err
	}
	if mil, ok := m.militares[rg]; ok {
		cp := *mil
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMilitarRepo) Update(_ context.Context, mil *model.Militar) error {
	cur, ok := m.militares[mil.RG]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *cur
	cp.Grad, cp.Quadro, cp.Nome, cp.Unidade = mil.Grad, mil.Quadro, mil.Nome, mil.Unidade
	cp.UpdatedBy = mil.UpdatedBy
	if mil.Role != nil {
		role := *mil.Role
		cp.Role = &role
	}
	m.militares[mil.RG] = &cp
	return nil
}

func (m *mockMilitarRepo) Upsert(_ context.Context, mil *model.Militar) error {
	cp := *mil
	m.militares[mil.RG] = &cp
	return nil
}

func (m *mockMilitarRepo) BatchUpsert(_ context.Context, list []model.Militar) error {
	if m.err != nil {
		return m.err
	}
	for i := range list {
		cp := list[i]
		m.militares[cp.RG] = &cp
	}
	return nil
}

func (m *mockMilitarRepo) Delete(_ context.Context, rg string) error {
	if _, ok := m.militares[rg]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.militares, rg)
	return nil
}

func (m *mockMilitarRepo) ListAll(_ context.Context) ([]model.Militar, error) {
	var out []model.Militar
	for _, mil := range m.militares {
		out = append(out, *mil)
	}
	return out, nil
}

// ── Mock UsuarioRepository ──

type mockUsuarioRepo struct {
	usuarios map[string]*model.Usuario
}

func newMockUsuarioRepo() *mockUsuarioRepo {
	return &mockUsuarioRepo{usuarios: make(map[string]*model.Usuario)}
}

func (m *mockUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if _, ok := m.usuarios[u.RG]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *u
	m.usuarios[u.RG] = &cp
	return nil
}

func (m *mockUsuarioRepo) GetByRG(_ context.Context, rg string) (*model.Usuario, error) {
	if u, ok := m.usuarios[rg]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUsuarioRepo) UpdatePassword(_ context.Context, rg, hash string) error {
	u, ok := m.usuarios[rg]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUsuarioRepo) Upsert(_ context.Context, u *model.Usuario) error {
	cp := *u
	m.usuarios[u.RG] = &cp
	return nil
}

// ── Mock PermutaRepository ──

// mockPermutaRepo hands out copies so that a stale read loses the version
// check like it would against the database.
type mockPermutaRepo struct {
	permutas  map[string]*model.Permuta
	createErr error
	created   int
}

func newMockPermutaRepo() *mockPermutaRepo {
	return &mockPermutaRepo{permutas: make(map[string]*model.Permuta)}
}

func (m *mockPermutaRepo) BatchCreate(_ context.Context, list []model.Permuta) error {
	if m.createErr != nil {
		return m.createErr
	}
	for i := range list {
		cp := list[i]
		m.permutas[cp.PermutaID] = &cp
	}
	m.created += len(list)
	return nil
}

func (m *mockPermutaRepo) GetByID(_ context.Context, id string) (*model.Permuta, error) {
	if p, ok := m.permutas[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPermutaRepo) ListAll(_ context.Context) ([]model.Permuta, error) {
	var out []model.Permuta
	for _, p := range m.permutas {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPermutaRepo) Update(_ context.Context, p *model.Permuta) error {
	stored, ok := m.permutas[p.PermutaID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	cp := *p
	m.permutas[p.PermutaID] = &cp
	return nil
}

func (m *mockPermutaRepo) SetFlags(_ context.Context, ids []string, fields map[string]interface{}) error {
	for _, id := range ids {
		if _, ok := m.permutas[id]; !ok {
			return gorm.ErrRecordNotFound
		}
	}
	for _, id := range ids {
		p := m.permutas[id]
		for k, v := range fields {
			switch k {
			case "enviada":
				p.Enviada = v.(bool)
			case "data_envio":
				t := v.(time.Time)
				p.DataEnvio = &t
			case "arquivada":
				p.Arquivada = v.(bool)
			case "data_arquivamento":
				if v == nil {
					p.DataArquivamento = nil
				} else {
					t := v.(time.Time)
					p.DataArquivamento = &t
				}
			}
		}
		p.Version++
	}
	return nil
}

// seed stores p with version 1 and returns its ID.
func (m *mockPermutaRepo) seed(p model.Permuta) string {
	if p.Version == 0 {
		p.Version = 1
	}
	m.permutas[p.PermutaID] = &p
	return p.PermutaID
}

// ── helpers ──

type mockRepos struct {
	militar *mockMilitarRepo
	usuario *mockUsuarioRepo
	permuta *mockPermutaRepo
}

func newMockRepos(militares ...model.Militar) (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		militar: newMockMilitarRepo(militares...),
		usuario: newMockUsuarioRepo(),
		permuta: newMockPermutaRepo(),
	}
	return &repository.Repository{
		Militar: m.militar,
		Usuario: m.usuario,
		Permuta: m.permuta,
	}, m
}

func testMilitar(rg, grad, nome, unidade string) model.Militar {
	return model.Militar{RG: rg, Grad: grad, Quadro: "QBMP", Nome: nome, Unidade: unidade}
}
