package services

import (
	"context"
	"log"
	"time"

	"eb5tracker/internal/authz"
	"eb5tracker/internal/metrics"
	"eb5tracker/internal/models"
)

// TemplateSource supplies the stage list new investors are seeded from.
type TemplateSource interface {
	List() ([]models.StageDefinition, error)
}

// InvestorService runs one investor mutation per call: check the caller's
// role, load the caller's whole collection, change one record, then save the
// whole collection back. Two sessions of the same identity editing different
// investors at once can overwrite each other (last write wins).
type InvestorService interface {
	List(ctx context.Context, caller *models.Identity) ([]models.Investor, error)
	Get(ctx context.Context, caller *models.Identity, id string) (*models.Investor, error)
	Create(ctx context.Context, caller *models.Identity, fields models.InvestorFields) (*models.Investor, error)
	Update(ctx context.Context, caller *models.Identity, id string, patch models.InvestorPatch) (*models.Investor, error)
	ToggleStage(ctx context.Context, caller *models.Identity, id, stageID string) (*models.Investor, error)
	SetStageStatus(ctx context.Context, caller *models.Identity, id, stageID string, status models.StageStatus) (*models.Investor, error)
	SaveNotes(ctx context.Context, caller *models.Identity, id, notes string) (*models.Investor, error)
	Delete(ctx context.Context, caller *models.Identity, id string) error
}

type InvestorOptions struct {
	Notifier StageNotifier
	// AnonymousRole is the role of callers without a session (local demo mode).
	AnonymousRole models.Role
	Now           func() time.Time
}

type investorService struct {
	gateway       PersistenceGateway
	templates     TemplateSource
	notifier      StageNotifier
	anonymousRole models.Role
	now           func() time.Time
}

func NewInvestorService(gateway PersistenceGateway, templates TemplateSource, opts InvestorOptions) InvestorService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.AnonymousRole.Valid() {
		opts.AnonymousRole = models.RoleUser
	}
	return &investorService{
		gateway:       gateway,
		templates:     templates,
		notifier:      opts.Notifier,
		anonymousRole: opts.AnonymousRole,
		now:           opts.Now,
	}
}

func (s *investorService) roleOf(caller *models.Identity) models.Role {
	if caller == nil {
		return s.anonymousRole
	}
	return caller.Role
}

func (s *investorService) require(caller *models.Identity, a authz.Action) error {
	if err := authz.Require(s.roleOf(caller), a); err != nil {
		log.Printf("[investors][forbidden] action=%q caller=%s", a, callerID(caller))
		return err
	}
	return nil
}

func callerID(caller *models.Identity) string {
	if caller == nil {
		return "local"
	}
	return caller.UserID
}

func (s *investorService) List(ctx context.Context, caller *models.Identity) ([]models.Investor, error) {
	return s.gateway.LoadAll(ctx, caller)
}

func (s *investorService) Get(ctx context.Context, caller *models.Identity, id string) (*models.Investor, error) {
	list, err := s.gateway.LoadAll(ctx, caller)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *investorService) Create(ctx context.Context, caller *models.Identity, fields models.InvestorFields) (*models.Investor, error) {
	if err := s.require(caller, authz.ActionCreateInvestor); err != nil {
		return nil, err
	}
	tpl, err := s.templates.List()
	if err != nil {
		return nil, err
	}
	inv, err := models.NewInvestor(fields, tpl, s.now())
	if err != nil {
		return nil, err
	}
	list, err := s.gateway.LoadAll(ctx, caller)
	if err != nil {
		return nil, err
	}
	list = append(list, *inv)
	if err := s.gateway.SaveAll(ctx, caller, list); err != nil {
		return nil, err
	}
	log.Printf("[investors][create] id=%s stages=%d caller=%s", inv.ID, len(inv.Stages), callerID(caller))
	return inv, nil
}

// mutateOne applies fn to the investor with id and saves the whole collection.
func (s *investorService) mutateOne(ctx context.Context, caller *models.Identity, id string, fn func(models.Investor) (models.Investor, error)) (*models.Investor, *models.Investor, error) {
	list, err := s.gateway.LoadAll(ctx, caller)
	if err != nil {
		return nil, nil, err
	}
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, models.ErrNotFound
	}
	before := list[idx].Clone()
	after, err := fn(list[idx].Clone())
	if err != nil {
		return nil, nil, err
	}
	list[idx] = after
	if err := s.gateway.SaveAll(ctx, caller, list); err != nil {
		return nil, nil, err
	}
	return &before, &after, nil
}

func (s *investorService) Update(ctx context.Context, caller *models.Identity, id string, patch models.InvestorPatch) (*models.Investor, error) {
	actions := []authz.Action{}
	if patch.TouchesIdentity() {
		actions = append(actions, authz.ActionEditInvestor)
	}
	if patch.Stages != nil {
		actions = append(actions, authz.ActionChangeStage)
	}
	if patch.Notes != nil {
		actions = append(actions, authz.ActionEditNotes)
	}
	if len(actions) == 0 {
		actions = append(actions, authz.ActionEditInvestor)
	}
	for _, a := range actions {
		if err := s.require(caller, a); err != nil {
			return nil, err
		}
	}

	now := s.now()
	before, after, err := s.mutateOne(ctx, caller, id, func(inv models.Investor) (models.Investor, error) {
		return models.ApplyUpdate(inv, patch, now)
	})
	if err != nil {
		return nil, err
	}
	if patch.Stages != nil {
		for i := range after.Stages {
			if after.Stages[i].Completed && !before.Stages[i].Completed {
				s.stageCompleted(caller, *after, after.Stages[i])
			}
		}
	}
	log.Printf("[investors][update] id=%s index=%d caller=%s", id, after.CurrentStageIndex, callerID(caller))
	return after, nil
}

func (s *investorService) changeStage(ctx context.Context, caller *models.Identity, id, stageID string, fn func(models.Stage) models.Stage) (*models.Investor, error) {
	if err := s.require(caller, authz.ActionChangeStage); err != nil {
		return nil, err
	}
	pos := -1
	before, after, err := s.mutateOne(ctx, caller, id, func(inv models.Investor) (models.Investor, error) {
		pos = inv.StageIndex(stageID)
		if pos < 0 {
			return inv, models.ErrNotFound
		}
		inv.Stages[pos] = fn(inv.Stages[pos])
		inv.CurrentStageIndex = models.DeriveCurrentIndex(inv.Stages)
		return inv, nil
	})
	if err != nil {
		return nil, err
	}
	st := after.Stages[pos]
	metrics.RecordStageTransition(string(st.EffectiveStatus()))
	if st.Completed && !before.Stages[pos].Completed {
		s.stageCompleted(caller, *after, st)
	}
	log.Printf("[investors][stage] id=%s stage=%s status=%s index=%d caller=%s",
		id, stageID, st.EffectiveStatus(), after.CurrentStageIndex, callerID(caller))
	return after, nil
}

func (s *investorService) ToggleStage(ctx context.Context, caller *models.Identity, id, stageID string) (*models.Investor, error) {
	now := s.now()
	return s.changeStage(ctx, caller, id, stageID, func(st models.Stage) models.Stage {
		return models.ToggleCompletion(st, now)
	})
}

func (s *investorService) SetStageStatus(ctx context.Context, caller *models.Identity, id, stageID string, status models.StageStatus) (*models.Investor, error) {
	if _, err := models.ParseStageStatus(string(status)); err != nil {
		return nil, err
	}
	now := s.now()
	return s.changeStage(ctx, caller, id, stageID, func(st models.Stage) models.Stage {
		return models.SetStatus(st, status, now)
	})
}

func (s *investorService) SaveNotes(ctx context.Context, caller *models.Identity, id, notes string) (*models.Investor, error) {
	if err := s.require(caller, authz.ActionEditNotes); err != nil {
		return nil, err
	}
	_, after, err := s.mutateOne(ctx, caller, id, func(inv models.Investor) (models.Investor, error) {
		return models.RecordNotes(inv, notes), nil
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *investorService) Delete(ctx context.Context, caller *models.Identity, id string) error {
	if err := s.require(caller, authz.ActionDeleteInvestor); err != nil {
		return err
	}
	if err := s.gateway.DeleteOne(ctx, caller, id); err != nil {
		return err
	}
	log.Printf("[investors][delete] id=%s caller=%s", id, callerID(caller))
	return nil
}

func (s *investorService) stageCompleted(caller *models.Identity, inv models.Investor, st models.Stage) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.StageCompleted(inv, st, caller); err != nil {
		// warn but do not fail the update
		log.Printf("[investors][notify] warning: stage=%s investor=%s: %v", st.ID, inv.ID, err)
	}
}
