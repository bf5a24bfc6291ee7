package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"eb5tracker/internal/metrics"
	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

const (
	backendRemote = "remote"
	backendLocal  = "local"
)

// PersistenceGateway routes investor and user reads/writes. An identity means
// the remote store, scoped to that identity; nil means the process-wide local
// store.
type PersistenceGateway interface {
	LoadAll(ctx context.Context, identity *models.Identity) ([]models.Investor, error)
	SaveAll(ctx context.Context, identity *models.Identity, investors []models.Investor) error
	DeleteOne(ctx context.Context, identity *models.Identity, investorID string) error
	LoadUsers(ctx context.Context, identity *models.Identity) ([]models.User, error)
	SetUserRole(ctx context.Context, identity *models.Identity, targetID string, role models.Role) error
}

type Gateway struct {
	investors repositories.InvestorRepository
	users     repositories.UserRepository
	local     repositories.LocalStore
}

func NewGateway(investors repositories.InvestorRepository, users repositories.UserRepository, local repositories.LocalStore) *Gateway {
	return &Gateway{investors: investors, users: users, local: local}
}

func (g *Gateway) transportErr(op, backend string, err error) error {
	metrics.RecordGatewayError(op, backend)
	log.Printf("[gateway][%s][%s] %v", backend, op, err)
	return &models.TransportError{Op: op, Err: err}
}

// LoadAll propagates remote failures. Only the unauthenticated path degrades,
// falling back to the demo records.
func (g *Gateway) LoadAll(ctx context.Context, identity *models.Identity) ([]models.Investor, error) {
	if identity == nil {
		return g.loadLocal(), nil
	}
	list, err := g.investors.ListByOwner(ctx, identity.UserID)
	if err != nil {
		return nil, g.transportErr("load investors", backendRemote, err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].DateAdded < list[j].DateAdded })
	return list, nil
}

func (g *Gateway) SaveAll(ctx context.Context, identity *models.Identity, investors []models.Investor) error {
	if identity == nil {
		if err := g.saveLocal(investors); err != nil {
			return g.transportErr("save investors", backendLocal, err)
		}
		return nil
	}
	if err := g.investors.SaveAll(ctx, identity.UserID, investors); err != nil {
		return g.transportErr("save investors", backendRemote, err)
	}
	log.Printf("[gateway][remote][save] owner=%s count=%d", identity.UserID, len(investors))
	return nil
}

func (g *Gateway) DeleteOne(ctx context.Context, identity *models.Identity, investorID string) error {
	if identity == nil {
		if err := g.deleteLocal(investorID); err != nil {
			return g.transportErr("delete investor", backendLocal, err)
		}
		return nil
	}
	if err := g.investors.Delete(ctx, identity.UserID, investorID); err != nil {
		return g.transportErr("delete investor", backendRemote, err)
	}
	log.Printf("[gateway][remote][delete] owner=%s id=%s", identity.UserID, investorID)
	return nil
}

// ===== local store =====

func (g *Gateway) readLocal() ([]models.Investor, bool, error) {
	b, err := g.local.GetItem(repositories.LocalInvestorsKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []models.Investor
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", repositories.LocalInvestorsKey, err)
	}
	return list, true, nil
}

func (g *Gateway) loadLocal() []models.Investor {
	list, ok, err := g.readLocal()
	if err != nil {
		log.Printf("[gateway][local][load] falling back to demo data: %v", err)
		return models.DemoInvestors()
	}
	if !ok {
		return models.DemoInvestors()
	}
	return list
}

func (g *Gateway) saveLocal(investors []models.Investor) error {
	current, _, err := g.readLocal()
	if err != nil {
		log.Printf("[gateway][local][save] ignoring unreadable collection: %v", err)
		current = nil
	}
	pos := make(map[string]int, len(current))
	for i, inv := range current {
		pos[inv.ID] = i
	}
	for _, inv := range investors {
		if i, ok := pos[inv.ID]; ok {
			current[i] = inv
			continue
		}
		pos[inv.ID] = len(current)
		current = append(current, inv)
	}
	return g.writeLocal(current)
}

func (g *Gateway) deleteLocal(investorID string) error {
	current, ok, err := g.readLocal()
	if err != nil {
		return err
	}
	if !ok {
		current = models.DemoInvestors()
	}
	kept := current[:0]
	for _, inv := range current {
		if inv.ID != investorID {
			kept = append(kept, inv)
		}
	}
	return g.writeLocal(kept)
}

func (g *Gateway) writeLocal(list []models.Investor) error {
	if list == nil {
		list = []models.Investor{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return g.local.SetItem(repositories.LocalInvestorsKey, b)
}
