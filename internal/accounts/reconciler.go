// Package accounts reconciles normalized provider identities into
// account records, enforcing the one-account-per-external-identity and
// unique-email invariants.
package accounts

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
)

// Reconciler resolves a normalized identity to exactly one account.
// The gorm.DB must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type Reconciler struct {
	db *gorm.DB
}

// New creates a new Reconciler on the given database.
func New(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile finds or creates the account for the identity. It is
// idempotent per identity: two calls with the same identity yield the
// same single row. Ordered policy, first match wins:
//
//  1. account bound to (provider, provider_id): refresh profile fields
//  2. real (non-fallback) email already known: rebind that account to
//     the new provider, last login wins
//  3. otherwise create, with the unique index arbitrating concurrent
//     first logins; the loser re-reads the winner's row
func (r *Reconciler) Reconcile(ctx context.Context, identity auth.Identity) (*models.Account, error) {
	if identity.ProviderID == "" {
		return nil, auth.ErrMissingProviderIdentifier
	}

	switch identity.Provider {
	case models.ProviderGitHub, models.ProviderGoogle, models.ProviderDiscord:
	default:
		return nil, errors.Wrap(auth.ErrUnsupportedProvider, identity.Provider)
	}

	db := r.db.WithContext(ctx)

	var account models.Account

	err := db.Where("provider = ? AND provider_id = ?", identity.Provider, identity.ProviderID).
		First(&account).Error

	switch {
	case err == nil:
		return r.refresh(db, &account, identity)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "failed to query account")
	}

	if identity.EmailIsReal() {
		err = db.Where("email = ?", identity.Email).First(&account).Error

		switch {
		case err == nil:
			// returning user via a new provider; a single provider stays
			// active per account, so the binding moves
			account.Provider = identity.Provider
			account.ProviderID = identity.ProviderID
			applyProfile(&account, identity)

			if err = db.Save(&account).Error; err != nil {
				return nil, saveError(err)
			}

			return &account, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, errors.Wrap(err, "failed to query account by email")
		}
	}

	account = models.Account{
		Provider:   identity.Provider,
		ProviderID: identity.ProviderID,
		Name:       identity.Name,
		AvatarURL:  identity.AvatarURL,
	}

	if identity.Email != "" {
		email := identity.Email
		account.Email = &email
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_id"}},
		DoNothing: true,
	}).Create(&account)

	if result.Error != nil {
		return nil, saveError(result.Error)
	}

	if result.RowsAffected == 0 {
		// lost the race against a concurrent first login
		if err = db.Where("provider = ? AND provider_id = ?", identity.Provider, identity.ProviderID).
			First(&account).Error; err != nil {
			return nil, errors.Wrap(err, "failed to re-read account after upsert")
		}
	}

	return &account, nil
}

// refresh updates the profile fields of an account on a returning login.
// The email only moves over when no other account owns it.
func (r *Reconciler) refresh(db *gorm.DB, account *models.Account, identity auth.Identity) (*models.Account, error) {
	if identity.Email != "" && identity.Email != account.EmailValue() {
		var owner models.Account

		err := db.Where("email = ? AND id <> ?", identity.Email, account.ID).First(&owner).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			email := identity.Email
			account.Email = &email
		case err != nil:
			return nil, errors.Wrap(err, "failed to check email ownership")
		default:
			// another account owns this email, keep the stored one
		}
	}

	applyProfile(account, identity)

	if err := db.Save(account).Error; err != nil {
		return nil, saveError(err)
	}

	return account, nil
}

// applyProfile refreshes name and avatar when the provider sent them.
func applyProfile(account *models.Account, identity auth.Identity) {
	if identity.Name != "" {
		account.Name = identity.Name
	}

	if identity.AvatarURL != "" {
		account.AvatarURL = identity.AvatarURL
	}
}

// saveError maps unique violations to the conflict sentinel.
func saveError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return auth.ErrAccountConflict
	}

	return errors.Wrap(err, "failed to persist account")
}
