package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
	pkgerrors "gocg-permutas/pkg/errors"
)

type permutaFixture struct {
	svc   PermutaService
	mocks *mockRepos
	dir   *projection.Directory
	swaps *projection.SwapProjection
}

// newPermutaFixture seeds militares 100 (Silva) and 200 (Souza), both
// registered with password "senha100"/"senha200", plus outsider 300.
func newPermutaFixture(t *testing.T) *permutaFixture {
	t.Helper()
	militares := []model.Militar{
		testMilitar("100", "CAP", "Silva", "A"),
		testMilitar("200", "TEN", "Souza", "A"),
		testMilitar("300", "SGT", "Pereira", "B"),
	}
	repo, mocks := newMockRepos(militares...)
	for _, rg := range []string{"100", "200", "300"} {
		hash, _ := bcrypt.GenerateFromPassword([]byte("senha"+rg), bcrypt.MinCost)
		mocks.usuario.usuarios[rg] = &model.Usuario{RG: rg, PasswordHash: string(hash), Role: model.RoleUser}
	}

	dir := projection.NewDirectory()
	dir.Replace(militares)
	swaps := projection.NewSwapProjection()

	svc := NewPermutaService(repo, swaps, zap.NewNop())
	return &permutaFixture{svc: svc, mocks: mocks, dir: dir, swaps: swaps}
}

// refresh rebuilds the projection from the mock store, as the syncer would.
func (f *permutaFixture) refresh(t *testing.T) {
	t.Helper()
	stored, _ := f.mocks.permuta.ListAll(context.Background())
	resolved, _ := projection.Resolve(stored, f.dir.Get)
	f.swaps.Replace(resolved)
}

func (f *permutaFixture) create(t *testing.T, entra, sai string) string {
	t.Helper()
	ids, err := f.svc.Create(context.Background(), &dto.CreatePermutasRequest{
		Permutas: []dto.PermutaEntry{{
			Data: "2024-01-10", Funcao: model.FuncaoPrimeiroSocorro,
			MilitarEntraRG: entra, MilitarSaiRG: sai,
		}},
	}, "12961", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return ids[0]
}

func (f *permutaFixture) stored(t *testing.T, id string) *model.Permuta {
	t.Helper()
	p, err := f.mocks.permuta.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("permuta %s not stored: %v", id, err)
	}
	return p
}

// ── Create ──

func TestCreate_PendingWithFlagsCleared(t *testing.T) {
	f := newPermutaFixture(t)

	ids, err := f.svc.Create(context.Background(), &dto.CreatePermutasRequest{
		Permutas: []dto.PermutaEntry{
			{Data: "2024-01-10", Funcao: model.FuncaoPrimeiroSocorro, MilitarEntraRG: "100", MilitarSaiRG: "200"},
			{Data: "2024-01-11", Funcao: model.FuncaoBuscaSalvamento, MilitarEntraRG: "200", MilitarSaiRG: "100"},
		},
	}, "100", model.RoleUser)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	for _, id := range ids {
		p := f.stored(t, id)
		if p.Status != model.StatusPendente {
			t.Errorf("%s: expected Pendente, got %s", id, p.Status)
		}
		if p.ConfirmadaPorMilitarEntra || p.ConfirmadaPorMilitarSai || p.Enviada || p.Arquivada {
			t.Errorf("%s: expected every flag false: %+v", id, p)
		}
	}
}

func TestCreate_ValidationIsAllOrNothing(t *testing.T) {
	cases := []struct {
		name  string
		entry dto.PermutaEntry
	}{
		{"bad date", dto.PermutaEntry{Data: "10/01/2024", Funcao: model.FuncaoPrimeiroSocorro, MilitarEntraRG: "100", MilitarSaiRG: "200"}},
		{"bad funcao", dto.PermutaEntry{Data: "2024-01-10", Funcao: "COZINHA", MilitarEntraRG: "100", MilitarSaiRG: "200"}},
		{"same militar", dto.PermutaEntry{Data: "2024-01-10", Funcao: model.FuncaoPrimeiroSocorro, MilitarEntraRG: "100", MilitarSaiRG: "100"}},
		{"unknown militar", dto.PermutaEntry{Data: "2024-01-10", Funcao: model.FuncaoPrimeiroSocorro, MilitarEntraRG: "100", MilitarSaiRG: "999"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPermutaFixture(t)
			valid := dto.PermutaEntry{Data: "2024-01-09", Funcao: model.FuncaoSegundoSocorro, MilitarEntraRG: "100", MilitarSaiRG: "200"}

			_, err := f.svc.Create(context.Background(), &dto.CreatePermutasRequest{
				Permutas: []dto.PermutaEntry{valid, tc.entry},
			}, "12961", model.RoleAdmin)

			if !errors.Is(err, ErrInvalidPermuta) {
				t.Fatalf("expected ErrInvalidPermuta, got %v", err)
			}
			var ve *PermutaValidationError
			if !errors.As(err, &ve) || ve.Index != 1 {
				t.Errorf("expected validation error at index 1, got %v", err)
			}
			if f.mocks.permuta.created != 0 {
				t.Errorf("expected nothing written, got %d", f.mocks.permuta.created)
			}
		})
	}
}

func TestCreate_UserMustBeParticipant(t *testing.T) {
	f := newPermutaFixture(t)

	_, err := f.svc.Create(context.Background(), &dto.CreatePermutasRequest{
		Permutas: []dto.PermutaEntry{{Data: "2024-01-10", Funcao: model.FuncaoPrimeiroSocorro, MilitarEntraRG: "100", MilitarSaiRG: "200"}},
	}, "300", model.RoleUser)
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

// ── Confirm ──

func TestConfirm_Outsider(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")

	err := f.svc.Confirm(context.Background(), id, "300", "senha300")
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestConfirm_Twice(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")
	ctx := context.Background()

	if err := f.svc.Confirm(ctx, id, "100", "senha100"); err != nil {
		t.Fatalf("first Confirm failed: %v", err)
	}
	first := f.stored(t, id)

	err := f.svc.Confirm(ctx, id, "100", "senha100")
	if !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}

	after := f.stored(t, id)
	if !after.ConfirmadaPorMilitarEntra {
		t.Error("flag must stay set")
	}
	if !after.DataConfirmacaoMilitarEntra.Equal(*first.DataConfirmacaoMilitarEntra) {
		t.Error("timestamp of the first confirmation changed")
	}
}

func TestConfirm_WrongPasswordAndUnregistered(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")
	ctx := context.Background()

	if err := f.svc.Confirm(ctx, id, "100", "errada"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}

	delete(f.mocks.usuario.usuarios, "200")
	if err := f.svc.Confirm(ctx, id, "200", "senha200"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}

	if p := f.stored(t, id); p.ConfirmadaPorMilitarEntra || p.ConfirmadaPorMilitarSai {
		t.Error("failed confirmations must not set flags")
	}
}

func TestConfirm_UnknownID(t *testing.T) {
	f := newPermutaFixture(t)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		if err := f.svc.Confirm(context.Background(), id, "100", "senha100"); !errors.Is(err, ErrPermutaNotFound) {
			t.Errorf("%s: expected ErrPermutaNotFound, got %v", id, err)
		}
	}
}

func TestConfirm_StaleVersionConflicts(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")

	// another writer bumps the version between read and write
	repo := f.mocks.permuta
	stale := *repo.permutas[id]
	repo.permutas[id].Version++
	stale.Confirm(model.SideEntra, time.Now())

	if err := repo.Update(context.Background(), &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got %v", err)
	}
}

// ── Invert ──

func TestInvert_TwiceRestoresOriginal(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")
	ctx := context.Background()

	if err := f.svc.Confirm(ctx, id, "100", "senha100"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	orig := f.stored(t, id)

	if err := f.svc.Invert(ctx, id, "100", model.RoleUser); err != nil {
		t.Fatalf("first Invert failed: %v", err)
	}
	mid := f.stored(t, id)
	if mid.MilitarEntraRG != "200" || mid.MilitarSaiRG != "100" {
		t.Errorf("references not swapped: %s/%s", mid.MilitarEntraRG, mid.MilitarSaiRG)
	}
	if mid.ConfirmadaPorMilitarEntra || !mid.ConfirmadaPorMilitarSai {
		t.Error("confirmation must follow militar 100 to the sai side")
	}

	if err := f.svc.Invert(ctx, id, "100", model.RoleUser); err != nil {
		t.Fatalf("second Invert failed: %v", err)
	}
	final := f.stored(t, id)
	if final.MilitarEntraRG != orig.MilitarEntraRG || final.MilitarSaiRG != orig.MilitarSaiRG {
		t.Error("references not restored")
	}
	if final.ConfirmadaPorMilitarEntra != orig.ConfirmadaPorMilitarEntra ||
		final.ConfirmadaPorMilitarSai != orig.ConfirmadaPorMilitarSai {
		t.Error("confirmation pairing not restored")
	}
	if !final.DataConfirmacaoMilitarEntra.Equal(*orig.DataConfirmacaoMilitarEntra) || final.DataConfirmacaoMilitarSai != nil {
		t.Error("confirmation timestamps not restored")
	}
}

func TestInvert_Guards(t *testing.T) {
	f := newPermutaFixture(t)
	ctx := context.Background()

	id := f.create(t, "100", "200")
	if err := f.svc.Invert(ctx, id, "300", model.RoleUser); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}

	if _, err := f.svc.MarkSent(ctx, []string{id}, "12961"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if err := f.svc.Invert(ctx, id, "100", model.RoleUser); !errors.Is(err, ErrAlreadySent) {
		t.Errorf("expected ErrAlreadySent, got %v", err)
	}

	approved := f.create(t, "100", "200")
	if err := f.svc.SetStatus(ctx, approved, model.StatusAprovada, "12961"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := f.svc.Invert(ctx, approved, "100", model.RoleUser); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// ── SetStatus ──

func TestSetStatus_StateMachine(t *testing.T) {
	f := newPermutaFixture(t)
	ctx := context.Background()
	id := f.create(t, "100", "200")

	if err := f.svc.SetStatus(ctx, id, model.StatusPendente, "12961"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for Pendente target, got %v", err)
	}
	if err := f.svc.SetStatus(ctx, id, model.StatusRejeitada, "12961"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := f.svc.SetStatus(ctx, id, model.StatusAprovada, "12961"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from Rejeitada, got %v", err)
	}
	if got := f.stored(t, id).Status; got != model.StatusRejeitada {
		t.Errorf("expected Rejeitada, got %s", got)
	}
}

// ── bulk flags ──

func TestArchive_UnknownIDAbortsBatch(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")

	_, err := f.svc.Archive(context.Background(), []string{id, uuid.NewString()}, "12961")
	if !errors.Is(err, ErrPermutaNotFound) {
		t.Fatalf("expected ErrPermutaNotFound, got %v", err)
	}
	if f.stored(t, id).Arquivada {
		t.Error("known id must not be archived when the batch fails")
	}
}

// ── scenarios ──

func TestScenario_CreateConfirmApprove(t *testing.T) {
	f := newPermutaFixture(t)
	ctx := context.Background()

	id := f.create(t, "100", "200")
	if p := f.stored(t, id); p.Status != model.StatusPendente {
		t.Fatalf("expected Pendente, got %s", p.Status)
	}

	if err := f.svc.Confirm(ctx, id, "100", "senha100"); err != nil {
		t.Fatalf("Confirm 100 failed: %v", err)
	}
	p := f.stored(t, id)
	if !p.ConfirmadaPorMilitarEntra || p.ConfirmadaPorMilitarSai {
		t.Fatalf("expected only entra confirmed: %+v", p)
	}

	if err := f.svc.Confirm(ctx, id, "200", "senha200"); err != nil {
		t.Fatalf("Confirm 200 failed: %v", err)
	}
	p = f.stored(t, id)
	if !p.ConfirmadaPorMilitarEntra || !p.ConfirmadaPorMilitarSai {
		t.Fatalf("expected both confirmed: %+v", p)
	}

	if err := f.svc.SetStatus(ctx, id, model.StatusAprovada, "12961"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if got := f.stored(t, id).Status; got != model.StatusAprovada {
		t.Errorf("expected Aprovada, got %s", got)
	}
}

func TestScenario_ArchiveUnarchive(t *testing.T) {
	f := newPermutaFixture(t)
	ctx := context.Background()
	id := f.create(t, "100", "200")
	f.refresh(t)

	yes, no := true, false
	active := func() int { return len(f.svc.List(&dto.PermutaListRequest{Arquivada: &no}, "12961", model.RoleAdmin)) }
	archived := func() int { return len(f.svc.List(&dto.PermutaListRequest{Arquivada: &yes}, "12961", model.RoleAdmin)) }

	if active() != 1 || archived() != 0 {
		t.Fatalf("before archive: active=%d archived=%d", active(), archived())
	}

	n, err := f.svc.Archive(ctx, []string{id}, "12961")
	if err != nil || n != 1 {
		t.Fatalf("Archive: n=%d err=%v", n, err)
	}
	p := f.stored(t, id)
	if !p.Arquivada || p.DataArquivamento == nil {
		t.Fatal("expected arquivada with timestamp")
	}
	f.refresh(t)
	if active() != 0 || archived() != 1 {
		t.Fatalf("after archive: active=%d archived=%d", active(), archived())
	}

	if _, err := f.svc.Unarchive(ctx, []string{id}, "12961"); err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}
	p = f.stored(t, id)
	if p.Arquivada || p.DataArquivamento != nil {
		t.Fatal("expected arquivada cleared with no timestamp")
	}
	f.refresh(t)
	if active() != 1 || archived() != 0 {
		t.Fatalf("after unarchive: active=%d archived=%d", active(), archived())
	}
}

// ── reads ──

func TestList_UserSeesOnlyOwn(t *testing.T) {
	f := newPermutaFixture(t)
	f.create(t, "100", "200")
	f.create(t, "200", "300")
	f.refresh(t)

	mine := f.svc.List(&dto.PermutaListRequest{RG: "300"}, "100", model.RoleUser)
	if len(mine) != 1 || mine[0].MilitarEntra.RG != "100" {
		t.Errorf("user 100 must only see own permutas, got %+v", mine)
	}

	all := f.svc.List(&dto.PermutaListRequest{}, "12961", model.RoleAdmin)
	if len(all) != 2 {
		t.Errorf("admin expected 2, got %d", len(all))
	}
}

func TestGet_HidesDanglingAndForeign(t *testing.T) {
	f := newPermutaFixture(t)
	id := f.create(t, "100", "200")
	f.refresh(t)

	if _, err := f.svc.Get(id, "300", model.RoleUser); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	got, err := f.svc.Get(id, "200", model.RoleUser)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MilitarSai == nil || got.MilitarSai.Nome != "Souza" {
		t.Errorf("expected resolved militar_sai, got %+v", got.MilitarSai)
	}

	// militar 200 leaves the roster: the permuta is no longer served
	f.dir.Replace([]model.Militar{testMilitar("100", "CAP", "Silva", "A")})
	f.refresh(t)
	if _, err := f.svc.Get(id, "12961", model.RoleAdmin); !errors.Is(err, ErrPermutaNotFound) {
		t.Errorf("expected ErrPermutaNotFound for dangling permuta, got %v", err)
	}
}
