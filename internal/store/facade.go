// Package store defines the StoreFacade contract the engine requires from
// persistence, and the sort/find parameter types shared by implementations.
package store

import (
	"context"

	"github.com/rezkam/keepup/internal/domain"
)

// SortDirection orders a find query.
type SortDirection int

const (
	SortAscending SortDirection = iota
	SortDescending
)

// UpdateRef names the parent of a CreateOcc: either an already-stored id or
// an IdToken produced earlier in the same batch.
type UpdateRef struct {
	ID    string
	Token domain.IdToken
	// HasToken distinguishes a zero-value Token from "no token given"; the
	// zero IdToken is never issued by NewIdToken (which starts at 1), but
	// this keeps the ref's validity explicit regardless.
	HasToken bool
}

// RefID builds an UpdateRef to an already-persisted id.
func RefID(id string) UpdateRef { return UpdateRef{ID: id} }

// RefToken builds an UpdateRef to a same-batch forward reference.
func RefToken(t domain.IdToken) UpdateRef { return UpdateRef{Token: t, HasToken: true} }

// UpdateKind discriminates the Update sum type.
type UpdateKind int

const (
	UpdateCreateItem UpdateKind = iota
	UpdateUpdateItem
	UpdateDeleteItem
	UpdateSetConfig
	UpdateDeleteConfig
	UpdateCreateOcc
	UpdateUpdateOcc
	UpdateDeleteOcc
)

// Update is one entry of a write batch. Only the fields relevant to Kind are
// populated.
type Update struct {
	Kind UpdateKind

	// CreateItem
	Token    domain.IdToken
	Item     domain.Item

	// UpdateItem / DeleteItem / UpdateOcc / DeleteOcc target an id.
	ID string

	// UpdateItem
	ItemUpdate domain.ItemUpdate

	// SetConfig; DeleteConfig uses only Config.Scope
	Config domain.Config

	// CreateOcc
	OccToken domain.IdToken
	ItemRef  UpdateRef
	Occ      domain.Occurrence

	// UpdateOcc
	OccUpdate domain.OccUpdate
}

func CreateItem(token domain.IdToken, item domain.Item) Update {
	return Update{Kind: UpdateCreateItem, Token: token, Item: item}
}

func UpdateItemOp(u domain.ItemUpdate) Update {
	return Update{Kind: UpdateUpdateItem, ID: u.ID, ItemUpdate: u}
}

func DeleteItem(id string) Update { return Update{Kind: UpdateDeleteItem, ID: id} }

func SetConfig(cfg domain.Config) Update { return Update{Kind: UpdateSetConfig, Config: cfg} }

func DeleteConfig(scope domain.ConfigScope) Update {
	return Update{Kind: UpdateDeleteConfig, Config: domain.Config{Scope: scope}}
}

func CreateOcc(token domain.IdToken, item UpdateRef, occ domain.Occurrence) Update {
	return Update{Kind: UpdateCreateOcc, OccToken: token, ItemRef: item, Occ: occ}
}

func UpdateOccOp(u domain.OccUpdate) Update {
	return Update{Kind: UpdateUpdateOcc, ID: u.ID, OccUpdate: u}
}

func DeleteOcc(id string) Update { return Update{Kind: UpdateDeleteOcc, ID: id} }

// WriteResult maps each batch-local IdToken to its persisted id.
type WriteResult map[domain.IdToken]string

// FindItemsParams filters and paginates find_items.
type FindItemsParams struct {
	Active *bool
	// MinEnd: when set, recurring items are included unconditionally; a
	// non-recurring item (OnlyOccEnd present) is included only if its
	// single occurrence's end is past MinEnd.
	MinEnd *int64 // seconds since epoch, UTC
	Sort   SortDirection
	Limit  int
}

// FindOccsParams filters and paginates find_occs.
type FindOccsParams struct {
	Start *int64
	End   *int64
	Sort  SortDirection
	Limit int
}

// Facade is the persistence contract the engine consumes.
type Facade interface {
	// Write applies updates strictly in order, atomically, returning the
	// persisted id for every batch-local IdToken referenced by a create.
	Write(ctx context.Context, updates []Update) (WriteResult, error)

	// FindItems returns items sorted by created-date, most-recently
	// created first when Sort is SortDescending.
	FindItems(ctx context.Context, params FindItemsParams) ([]domain.Item, error)
	GetItems(ctx context.Context, ids []string) ([]domain.Item, error)
	GetConfigs(ctx context.Context, scopes []domain.ConfigScope) ([]domain.Config, error)
	GetOccs(ctx context.Context, ids []string) ([]domain.Occurrence, error)

	// FindOccs returns, per item id, the occurrences overlapping
	// [params.Start, params.End) (half-open; an occurrence is included iff
	// occ.End > start and occ.Start < end), ordered and limited per params.
	FindOccs(ctx context.Context, itemIDs []string, params FindOccsParams) (map[string][]domain.Occurrence, error)
}
