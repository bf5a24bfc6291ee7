package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"eb5tracker/internal/models"
)

const LocalInvestorsKey = "eb5_investors"

type InvestorRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Investor, error)
	// SaveAll upserts each investor by id. Investors missing from the slice are kept.
	SaveAll(ctx context.Context, ownerID string, investors []models.Investor) error
	Delete(ctx context.Context, ownerID, investorID string) error
}

type investorRepository struct {
	kv KVStore
}

func NewInvestorRepository(kv KVStore) InvestorRepository {
	return &investorRepository{kv: kv}
}

func investorPrefix(ownerID string) string {
	return fmt.Sprintf("investor:%s:", ownerID)
}

func investorKey(ownerID, investorID string) string {
	return investorPrefix(ownerID) + investorID
}

func (r *investorRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Investor, error) {
	entries, err := r.kv.GetByPrefix(ctx, investorPrefix(ownerID))
	if err != nil {
		return nil, err
	}
	res := make([]models.Investor, 0, len(entries))
	for _, e := range entries {
		var inv models.Investor
		if err := json.Unmarshal(e.Value, &inv); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		res = append(res, inv)
	}
	return res, nil
}

func (r *investorRepository) SaveAll(ctx context.Context, ownerID string, investors []models.Investor) error {
	entries := make([]KVEntry, 0, len(investors))
	for _, inv := range investors {
		b, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("encode investor %s: %w", inv.ID, err)
		}
		entries = append(entries, KVEntry{Key: investorKey(ownerID, inv.ID), Value: b})
	}
	return r.kv.MSet(ctx, entries)
}

func (r *investorRepository) Delete(ctx context.Context, ownerID, investorID string) error {
	return r.kv.Del(ctx, investorKey(ownerID, investorID))
}
