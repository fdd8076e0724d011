package identity

import "github.com/sells-group/prospect-cli/internal/model"

// KeyFor builds the canonical key for a person at an employer.
func KeyFor(first, last, employer string) model.IdentityKey {
	return model.IdentityKey{
		FirstName: Fold(first),
		LastName:  Fold(last),
		Employer:  NormalizeEmployer(employer),
	}
}

// KeyOf derives the identity key of a search record.
func KeyOf(rec model.RawCandidateRecord) model.IdentityKey {
	first, last := rec.Names()
	return KeyFor(first, last, rec.Employer)
}

// IsDuplicate reports whether key is already in seen.
func IsDuplicate(key model.IdentityKey, seen model.KeySet) bool {
	return seen.Has(key)
}
