package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/tandem/internal/model"
)

type FriendStore struct {
	db *sql.DB
}

func NewFriendStore(db *sql.DB) *FriendStore {
	return &FriendStore{db: db}
}

// friendshipSelect resolves the "other side" of each friendship relative to
// the viewing user, passed as the first bind argument.
const friendshipSelect = `SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
	u.id, u.name, u.email
	FROM friendships f
	JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END`

func scanFriendship(row scanner) (*model.Friendship, error) {
	var f model.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
		&f.Friend.ID, &f.Friend.Name, &f.Friend.Email)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Request creates a pending friendship from requester to addressee.
func (s *FriendStore) Request(ctx context.Context, requesterID, addresseeID int64) (*model.Friendship, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (requester_id, addressee_id, status) VALUES (?, ?, ?)`,
		requesterID, addresseeID, model.FriendshipPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert friendship: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id, requesterID)
}

// GetByID returns the friendship as seen by viewerID.
func (s *FriendStore) GetByID(ctx context.Context, id, viewerID int64) (*model.Friendship, error) {
	row := s.db.QueryRowContext(ctx, friendshipSelect+` WHERE f.id = ?`, viewerID, id)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// Between returns the friendship between two users in either direction.
func (s *FriendStore) Between(ctx context.Context, a, b int64) (*model.Friendship, error) {
	row := s.db.QueryRowContext(ctx,
		friendshipSelect+` WHERE (f.requester_id = ? AND f.addressee_id = ?) OR (f.requester_id = ? AND f.addressee_id = ?)`,
		a, a, b, b, a,
	)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship between users: %w", err)
	}
	return f, nil
}

// AreFriends reports whether an accepted friendship exists between two users.
func (s *FriendStore) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friendships
		 WHERE status = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))`,
		model.FriendshipAccepted, a, b, b, a,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return count > 0, nil
}

// List returns every friendship touching the user, pending ones included.
func (s *FriendStore) List(ctx context.Context, userID int64) ([]model.Friendship, error) {
	rows, err := s.db.QueryContext(ctx,
		friendshipSelect+` WHERE f.requester_id = ? OR f.addressee_id = ? ORDER BY f.status ASC, u.name ASC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		friendships = append(friendships, *f)
	}
	return friendships, rows.Err()
}

func (s *FriendStore) Accept(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE friendships SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.FriendshipAccepted, id,
	)
	if err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}
	return nil
}

func (s *FriendStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}
