package store

import "context"

const userColumns = `id::text, phone_number, name, created_at, updated_at`

func userDest(u *User) []any {
	return []any{&u.ID, &u.PhoneNumber, &u.Name, &u.CreatedAt, &u.UpdatedAt}
}

// GetUser loads a profile.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	if err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id).Scan(userDest(&u)...); err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}

// UpsertUser creates the profile on first sign-in and refreshes the phone
// number on later ones.
func (s *Store) UpsertUser(ctx context.Context, id, phone string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (id, phone_number)
		VALUES ($1::uuid, $2)
		ON CONFLICT (id) DO UPDATE SET
			phone_number = CASE WHEN EXCLUDED.phone_number = '' THEN users.phone_number ELSE EXCLUDED.phone_number END,
			updated_at = now()
		RETURNING `+userColumns, id, phone).Scan(userDest(&u)...)
	if err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}

// UpdateUserName sets the display name.
func (s *Store) UpdateUserName(ctx context.Context, id, name string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+userColumns, id, name).Scan(userDest(&u)...)
	if err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}
