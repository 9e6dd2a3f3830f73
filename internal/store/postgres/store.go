// Package postgres implements store.Facade against PostgreSQL via pgx,
// using the executeInTransaction/finalizeTx shape for atomic batch writes,
// and encoding Schedule/Config variants through the blob codec.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/store"
	"github.com/rezkam/keepup/internal/store/blob"
)

// Store is the PostgreSQL implementation of store.Facade.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Facade = (*Store)(nil)

// NewStore wraps an already-open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// finalizeTx rolls back on error, commits otherwise.
func finalizeTx(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		slog.ErrorContext(ctx, "transaction failed, rolling back", "error", *err)
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed", "original_error", *err, "rollback_error", rbErr)
		}
		return
	}
	if cErr := tx.Commit(ctx); cErr != nil {
		slog.ErrorContext(ctx, "transaction commit failed", "error", cErr)
		*err = cErr
	}
}

func (s *Store) executeInTransaction(ctx context.Context, operation string, fn func(tx pgx.Tx) error) (err error) {
	start := time.Now().UTC()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewError(domain.KindStoreIO, "begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back", "operation", operation, "panic", p)
			_ = tx.Rollback(ctx)
			panic(p)
		}
		finalizeTx(ctx, tx, &err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed", "operation", operation, "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(tx)
	return
}

// Write applies updates strictly in order inside a single transaction.
func (s *Store) Write(ctx context.Context, updates []store.Update) (store.WriteResult, error) {
	result := make(store.WriteResult, len(updates))

	err := s.executeInTransaction(ctx, "write", func(tx pgx.Tx) error {
		resolveItemID := func(ref store.UpdateRef) (string, error) {
			if ref.HasToken {
				id, ok := result[ref.Token]
				if !ok {
					return "", domain.NewError(domain.KindInvalidToken, "token not created earlier in this batch", nil)
				}
				return id, nil
			}
			return ref.ID, nil
		}

		for _, u := range updates {
			switch u.Kind {
			case store.UpdateCreateItem:
				id, err := insertItem(ctx, tx, u.Item)
				if err != nil {
					return err
				}
				result[u.Token] = id

			case store.UpdateUpdateItem:
				if err := updateItem(ctx, tx, u.ItemUpdate); err != nil {
					return err
				}

			case store.UpdateDeleteItem:
				if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, u.ID); err != nil {
					return domain.NewError(domain.KindStoreIO, "delete item", err)
				}

			case store.UpdateSetConfig:
				if err := upsertConfig(ctx, tx, u.Config); err != nil {
					return err
				}

			case store.UpdateDeleteConfig:
				if err := deleteConfig(ctx, tx, u.Config.Scope); err != nil {
					return err
				}

			case store.UpdateCreateOcc:
				itemID, err := resolveItemID(u.ItemRef)
				if err != nil {
					return err
				}
				id, err := insertOcc(ctx, tx, itemID, u.Occ)
				if err != nil {
					return err
				}
				result[u.OccToken] = id

			case store.UpdateUpdateOcc:
				if err := updateOcc(ctx, tx, u.OccUpdate); err != nil {
					return err
				}

			case store.UpdateDeleteOcc:
				if _, err := tx.Exec(ctx, `DELETE FROM occurrences WHERE id = $1`, u.ID); err != nil {
					return domain.NewError(domain.KindStoreIO, "delete occurrence", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insertItem(ctx context.Context, tx pgx.Tx, it domain.Item) (string, error) {
	schedBlob, err := blob.EncodeSchedule(it.Schedule)
	if err != nil {
		return "", domain.NewError(domain.KindCodec, "encode schedule", err)
	}
	id := uuid.NewString()
	var onlyOccEnd *time.Time
	if end, ok := it.OnlyOccEnd(); ok {
		onlyOccEnd = &end
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO items (id, type, active, category, name, desc, sched_blob, only_occ_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, string(it.Type), it.Active, it.Category, it.Name, it.Desc, schedBlob, onlyOccEnd)
	if err != nil {
		return "", domain.NewError(domain.KindStoreIO, "insert item", err)
	}
	return id, nil
}

func updateItem(ctx context.Context, tx pgx.Tx, u domain.ItemUpdate) error {
	if u.Has("active") && u.Active != nil {
		if _, err := tx.Exec(ctx, `UPDATE items SET active = $1, updated_at = now() WHERE id = $2`, *u.Active, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update item active", err)
		}
	}
	if u.Has("category") && u.Category != nil {
		if _, err := tx.Exec(ctx, `UPDATE items SET category = $1, updated_at = now() WHERE id = $2`, *u.Category, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update item category", err)
		}
	}
	if u.Has("name") && u.Name != nil {
		if _, err := tx.Exec(ctx, `UPDATE items SET name = $1, updated_at = now() WHERE id = $2`, *u.Name, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update item name", err)
		}
	}
	if u.Has("desc") && u.Desc != nil {
		if _, err := tx.Exec(ctx, `UPDATE items SET desc = $1, updated_at = now() WHERE id = $2`, *u.Desc, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update item desc", err)
		}
	}
	if u.Has("schedule") && u.Schedule != nil {
		schedBlob, err := blob.EncodeSchedule(*u.Schedule)
		if err != nil {
			return domain.NewError(domain.KindCodec, "encode schedule", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE items SET sched_blob = $1, updated_at = now() WHERE id = $2`, schedBlob, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update item schedule", err)
		}
	}
	return nil
}

func insertOcc(ctx context.Context, tx pgx.Tx, itemID string, occ domain.Occurrence) (string, error) {
	id := uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO occurrences (id, item_id, active, start_s, end_s, task_completion_progress)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, itemID, occ.Active, occ.Start.Unix(), occ.End.Unix(), occ.TaskCompletionProgress)
	if err != nil {
		return "", domain.NewError(domain.KindStoreIO, "insert occurrence", err)
	}
	return id, nil
}

func updateOcc(ctx context.Context, tx pgx.Tx, u domain.OccUpdate) error {
	if u.Has("active") && u.Active != nil {
		if _, err := tx.Exec(ctx, `UPDATE occurrences SET active = $1 WHERE id = $2`, *u.Active, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update occurrence active", err)
		}
	}
	if u.Has("start") && u.Start != nil {
		if _, err := tx.Exec(ctx, `UPDATE occurrences SET start_s = $1 WHERE id = $2`, *u.Start, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update occurrence start", err)
		}
	}
	if u.Has("end") && u.End != nil {
		if _, err := tx.Exec(ctx, `UPDATE occurrences SET end_s = $1 WHERE id = $2`, *u.End, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update occurrence end", err)
		}
	}
	if u.Has("task_completion_progress") && u.TaskCompletionProgress != nil {
		if _, err := tx.Exec(ctx, `UPDATE occurrences SET task_completion_progress = $1 WHERE id = $2`, *u.TaskCompletionProgress, u.ID); err != nil {
			return domain.NewError(domain.KindStoreIO, "update occurrence progress", err)
		}
	}
	return nil
}

// scopeColumns maps a ConfigScope to the (column, value) pair that
// discriminates it, per the one-non-null-column schema in §6.
func scopeColumns(scope domain.ConfigScope) (column string, value any) {
	switch scope.Kind {
	case domain.ScopeAll:
		return "id_all", 0
	case domain.ScopeType:
		return "id_type", string(scope.Type)
	case domain.ScopeCategory:
		return "id_category", scope.Category
	case domain.ScopeItem:
		return "id_item", scope.ItemID
	default:
		return "id_occ", scope.OccID
	}
}

func upsertConfig(ctx context.Context, tx pgx.Tx, cfg domain.Config) error {
	blobData, err := blob.EncodeConfig(cfg)
	if err != nil {
		return domain.NewError(domain.KindCodec, "encode config", err)
	}
	column, value := scopeColumns(cfg.Scope)
	if _, err := deleteConfigErr(ctx, tx, cfg.Scope); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO configs (%s, config_blob) VALUES ($1, $2)`, column)
	if _, err := tx.Exec(ctx, query, value, blobData); err != nil {
		return domain.NewError(domain.KindStoreIO, "upsert config", err)
	}
	return nil
}

func deleteConfig(ctx context.Context, tx pgx.Tx, scope domain.ConfigScope) error {
	_, err := deleteConfigErr(ctx, tx, scope)
	return err
}

func deleteConfigErr(ctx context.Context, tx pgx.Tx, scope domain.ConfigScope) (int64, error) {
	column, value := scopeColumns(scope)
	query := fmt.Sprintf(`DELETE FROM configs WHERE %s = $1`, column)
	tag, err := tx.Exec(ctx, query, value)
	if err != nil {
		return 0, domain.NewError(domain.KindStoreIO, "delete config", err)
	}
	return tag.RowsAffected(), nil
}

func itemFromRow(id, itemType, name string, active bool, category, desc *string, schedBlob []byte, createdAt, updatedAt time.Time) (domain.Item, error) {
	sched, err := blob.DecodeSchedule(schedBlob)
	if err != nil {
		return domain.Item{}, err
	}
	return domain.Item{
		ID:        id,
		Type:      domain.ItemType(itemType),
		Active:    active,
		Category:  category,
		Name:      name,
		Desc:      desc,
		Schedule:  sched,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func scanItem(rows pgx.Rows) (domain.Item, error) {
	var (
		id, itemType, name      string
		category, desc          *string
		active                  bool
		schedBlob               []byte
		createdAt, updatedAt    time.Time
		onlyOccEnd              *time.Time
	)
	if err := rows.Scan(&id, &createdAt, &updatedAt, &itemType, &active, &category, &name, &desc, &schedBlob, &onlyOccEnd); err != nil {
		return domain.Item{}, domain.NewError(domain.KindStoreIO, "scan item", err)
	}
	return itemFromRow(id, itemType, name, active, category, desc, schedBlob, createdAt, updatedAt)
}

const itemColumns = `id, created_at, updated_at, type, active, category, name, desc, sched_blob, only_occ_end`

func (s *Store) FindItems(ctx context.Context, params store.FindItemsParams) ([]domain.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE true`, itemColumns)
	var args []any
	if params.Active != nil {
		args = append(args, *params.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if params.MinEnd != nil {
		args = append(args, time.Unix(*params.MinEnd, 0).UTC())
		query += fmt.Sprintf(" AND (only_occ_end IS NULL OR only_occ_end > $%d)", len(args))
	}
	query += " ORDER BY created_at"
	if params.Sort == store.SortDescending {
		query += " DESC"
	}
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewError(domain.KindStoreIO, "find items", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetItems(ctx context.Context, ids []string) ([]domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = ANY($1)`, itemColumns)
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, domain.NewError(domain.KindStoreIO, "get items", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) GetConfigs(ctx context.Context, scopes []domain.ConfigScope) ([]domain.Config, error) {
	var out []domain.Config
	for _, scope := range scopes {
		column, value := scopeColumns(scope)
		query := fmt.Sprintf(`SELECT config_blob FROM configs WHERE %s = $1`, column)
		var blobData []byte
		err := s.pool.QueryRow(ctx, query, value).Scan(&blobData)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, domain.NewError(domain.KindStoreIO, "get config", err)
		}
		cfg, err := blob.DecodeConfig(blobData)
		if err != nil {
			return nil, err
		}
		cfg.Scope = scope
		out = append(out, cfg)
	}
	return out, nil
}

const occColumns = `id, item_id, active, start_s, end_s, task_completion_progress`

func scanOcc(rows pgx.Rows) (domain.Occurrence, error) {
	var (
		id, itemID    string
		active        bool
		startS, endS  int64
		progress      int
	)
	if err := rows.Scan(&id, &itemID, &active, &startS, &endS, &progress); err != nil {
		return domain.Occurrence{}, domain.NewError(domain.KindStoreIO, "scan occurrence", err)
	}
	return domain.Occurrence{
		ID:                     id,
		ItemID:                 itemID,
		Active:                 active,
		Start:                  time.Unix(startS, 0).UTC(),
		End:                    time.Unix(endS, 0).UTC(),
		TaskCompletionProgress: progress,
	}, nil
}

func (s *Store) GetOccs(ctx context.Context, ids []string) ([]domain.Occurrence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM occurrences WHERE id = ANY($1)`, occColumns)
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, domain.NewError(domain.KindStoreIO, "get occurrences", err)
	}
	defer rows.Close()

	var occs []domain.Occurrence
	for rows.Next() {
		occ, err := scanOcc(rows)
		if err != nil {
			return nil, err
		}
		occs = append(occs, occ)
	}
	return occs, rows.Err()
}

// FindOccs returns, per item id, occurrences overlapping [start, end) —
// occ.end > start and occ.start < end — ordered and limited per params.
func (s *Store) FindOccs(ctx context.Context, itemIDs []string, params store.FindOccsParams) (map[string][]domain.Occurrence, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM occurrences WHERE item_id = ANY($1)`, occColumns)
	args := []any{itemIDs}
	if params.Start != nil {
		args = append(args, *params.Start)
		query += fmt.Sprintf(" AND end_s > $%d", len(args))
	}
	if params.End != nil {
		args = append(args, *params.End)
		query += fmt.Sprintf(" AND start_s < $%d", len(args))
	}
	query += " ORDER BY start_s"
	if params.Sort == store.SortDescending {
		query += " DESC"
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewError(domain.KindStoreIO, "find occurrences", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.Occurrence, len(itemIDs))
	for rows.Next() {
		occ, err := scanOcc(rows)
		if err != nil {
			return nil, err
		}
		if params.Limit > 0 && len(result[occ.ItemID]) >= params.Limit {
			continue
		}
		result[occ.ItemID] = append(result[occ.ItemID], occ)
	}
	return result, rows.Err()
}
