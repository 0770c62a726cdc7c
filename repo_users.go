package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun-backed credential store.
type Users struct {
	db *bun.DB
}

// NewUsersRepository creates the credential store over the given database.
func NewUsersRepository(db *bun.DB) *Users {
	return &Users{db: db}
}

var _ IdentityStore = (*Users)(nil)

// CreateUsersSchema creates the users table. Intended for sqlite deployments
// and tests; production schemas are managed by migrations.
func CreateUsersSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user by email")
	}
	return user, nil
}

func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user by id")
	}
	return user, nil
}

// UpsertOrRestore inserts the record, or, when a soft-deleted row still holds
// the email, restores that row in place: clear deleted_at, force
// activated=false unless the incoming record is an admin, then apply the
// attribute updates. The whole sequence runs in one transaction so the email
// uniqueness slot is never duplicated.
func (r *Users) UpsertOrRestore(ctx context.Context, record *User) (*User, error) {
	record.Email = NormalizeEmail(record.Email)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &User{}
		err := tx.NewSelect().
			Model(existing).
			WhereAllWithDeleted().
			Where("?TableAlias.email = ?", record.Email).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return errors.Wrap(err, errors.CategoryInternal, "failed to query user by email")
			}

			if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
				return errors.Wrap(err, errors.CategoryConflict, "could not create user")
			}
			return nil
		}

		if existing.DeletedAt == nil {
			return ErrIdentityExists
		}

		activated := existing.Activated && record.IsAdmin

		_, err = tx.NewUpdate().
			Model((*User)(nil)).
			WhereAllWithDeleted().
			Set("deleted_at = NULL").
			Set("activated = ?", activated).
			Set("password_hash = ?", record.PasswordHash).
			Set("first_name = ?", record.FirstName).
			Set("last_name = ?", record.LastName).
			Set("is_admin = ?", record.IsAdmin).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("?TableAlias.id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not restore user")
		}

		record.ID = existing.ID
		record.Activated = activated
		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user upsert transaction failed")
	}

	return record, nil
}

func (r *Users) SetActivated(ctx context.Context, id uuid.UUID, activated bool) error {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("activated = ?", activated).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update activation flag")
	}
	return requireAffectedRow(res)
}

func (r *Users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}
	return requireAffectedRow(res)
}

// Delete soft-deletes the user; the email keeps its uniqueness slot and the
// row stays restorable through UpsertOrRestore.
func (r *Users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model(&User{ID: id}).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}
	return requireAffectedRow(res)
}

func requireAffectedRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read affected rows")
	}
	if affected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}
