package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

// --- List methods ---

const listSelect = `SELECT l.id, l.name, l.created_at, l.updated_at, u.id, u.name, u.email
	FROM shared_lists l
	JOIN users u ON u.id = l.creator_id`

const listCollaboratorsQuery = `SELECT lc.list_id, u.id, u.name, u.email
	FROM list_collaborators lc
	JOIN users u ON u.id = lc.user_id
	WHERE lc.list_id IN (%s)
	ORDER BY u.name ASC`

func scanList(row scanner) (*model.SharedList, error) {
	var l model.SharedList
	err := row.Scan(&l.ID, &l.Name, &l.CreatedAt, &l.UpdatedAt, &l.Creator.ID, &l.Creator.Name, &l.Creator.Email)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// queryLists runs a list query, then attaches collaborators and the items
// matched by itemFilter (an AND-able SQL fragment, may be empty).
func (s *ListStore) queryLists(ctx context.Context, itemFilter string, itemArgs []any, query string, args ...any) ([]model.SharedList, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var lists []model.SharedList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}

	collaborators, err := loadMembers(ctx, s.db, listCollaboratorsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("load collaborators: %w", err)
	}
	items, err := s.loadItems(ctx, ids, itemFilter, itemArgs)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	for i := range lists {
		lists[i].Collaborators = collaborators[lists[i].ID]
		lists[i].Items = items[lists[i].ID]
	}
	return lists, nil
}

func (s *ListStore) Create(ctx context.Context, creatorID int64, name string) (*model.SharedList, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shared_lists (creator_id, name) VALUES (?, ?)`,
		creatorID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ListStore) GetByID(ctx context.Context, id int64) (*model.SharedList, error) {
	lists, err := s.queryLists(ctx, "", nil, listSelect+` WHERE l.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	if len(lists) == 0 {
		return nil, nil
	}
	return &lists[0], nil
}

// ListForUser returns lists the user created or collaborates on.
func (s *ListStore) ListForUser(ctx context.Context, userID int64) ([]model.SharedList, error) {
	lists, err := s.queryLists(ctx, "", nil,
		listSelect+` WHERE l.creator_id = ? OR l.id IN (SELECT list_id FROM list_collaborators WHERE user_id = ?)
		 ORDER BY l.updated_at DESC, l.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return lists, nil
}

func (s *ListStore) Rename(ctx context.Context, id int64, name string) (*model.SharedList, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE shared_lists SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename list: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ListStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shared_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func (s *ListStore) AddCollaborator(ctx context.Context, listID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO list_collaborators (list_id, user_id) VALUES (?, ?)`,
		listID, userID,
	)
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	return nil
}

func (s *ListStore) RemoveCollaborator(ctx context.Context, listID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM list_collaborators WHERE list_id = ? AND user_id = ?`,
		listID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	return nil
}

// ListsWithItemsDueBetween returns lists having at least one incomplete item
// due in [start, end). Only those qualifying items are attached.
func (s *ListStore) ListsWithItemsDueBetween(ctx context.Context, start, end time.Time) ([]model.SharedList, error) {
	filter := `completed = 0 AND due_at >= ? AND due_at < ?`
	filterArgs := []any{start.UTC(), end.UTC()}

	lists, err := s.queryLists(ctx, filter, filterArgs,
		listSelect+` WHERE l.id IN (SELECT list_id FROM list_items WHERE `+filter+`) ORDER BY l.id ASC`,
		filterArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists with items due between: %w", err)
	}
	return lists, nil
}

// --- Item methods ---

const itemCols = `id, list_id, text, due_at, completed, position, created_at`

func scanItem(row scanner) (*model.ListItem, error) {
	var item model.ListItem
	var dueAt sql.NullTime
	var completed int
	err := row.Scan(&item.ID, &item.ListID, &item.Text, &dueAt, &completed, &item.Position, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.DueAt = timePtr(dueAt)
	item.Completed = completed != 0
	return &item, nil
}

func (s *ListStore) loadItems(ctx context.Context, listIDs []int64, filter string, filterArgs []any) (map[int64][]model.ListItem, error) {
	placeholders, args := inClause(listIDs)
	query := `SELECT ` + itemCols + ` FROM list_items WHERE list_id IN (` + placeholders + `)`
	if filter != "" {
		query += ` AND ` + filter
		args = append(args, filterArgs...)
	}
	query += ` ORDER BY list_id ASC, position ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]model.ListItem)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items[item.ListID] = append(items[item.ListID], *item)
	}
	return items, rows.Err()
}

func (s *ListStore) AddItem(ctx context.Context, listID int64, text string, dueAt *time.Time) (*model.ListItem, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO list_items (list_id, text, due_at, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM list_items WHERE list_id = ?))`,
		listID, text, nullTime(dueAt), listID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := s.touch(ctx, listID); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, listID, id)
}

func (s *ListStore) GetItem(ctx context.Context, listID, itemID int64) (*model.ListItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM list_items WHERE id = ? AND list_id = ?`, itemID, listID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ListStore) UpdateItem(ctx context.Context, listID, itemID int64, text string, dueAt *time.Time) (*model.ListItem, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE list_items SET text = ?, due_at = ? WHERE id = ? AND list_id = ?`,
		text, nullTime(dueAt), itemID, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := s.touch(ctx, listID); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, listID, itemID)
}

func (s *ListStore) ToggleItem(ctx context.Context, listID, itemID int64) (*model.ListItem, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE list_items SET completed = 1 - completed WHERE id = ? AND list_id = ?`,
		itemID, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle item: %w", err)
	}
	if err := s.touch(ctx, listID); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, listID, itemID)
}

func (s *ListStore) DeleteItem(ctx context.Context, listID, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM list_items WHERE id = ? AND list_id = ?`, itemID, listID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return s.touch(ctx, listID)
}

func (s *ListStore) touch(ctx context.Context, listID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_lists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, listID)
	if err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return nil
}
