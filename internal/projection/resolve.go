package projection

import "gocg-permutas/internal/model"

// Lookup resolves an RG to a militar.
type Lookup func(rg string) (model.Militar, bool)

// Drop records a stored permuta left out of the projection and the RGs that
// failed to resolve.
type Drop struct {
	PermutaID  string
	MissingRGs []string
}

// Resolve attaches both militares to every stored permuta. A permuta with an
// unresolved side is not emitted; it is reported in dropped instead. stored
// is not modified.
func Resolve(stored []model.Permuta, lookup Lookup) (resolved []model.Permuta, dropped []Drop) {
	resolved = make([]model.Permuta, 0, len(stored))

	for _, p := range stored {
		entra, okEntra := lookup(p.MilitarEntraRG)
		sai, okSai := lookup(p.MilitarSaiRG)

		if !okEntra || !okSai {
			d := Drop{PermutaID: p.PermutaID}
			if !okEntra {
				d.MissingRGs = append(d.MissingRGs, p.MilitarEntraRG)
			}
			if !okSai {
				d.MissingRGs = append(d.MissingRGs, p.MilitarSaiRG)
			}
			dropped = append(dropped, d)
			continue
		}

		p.Entra = &entra
		p.Sai = &sai
		resolved = append(resolved, p)
	}

	return resolved, dropped
}
