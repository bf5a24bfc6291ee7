package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"eb5tracker/internal/authz"
	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

const (
	TemplateKey = "stages_template"

	newStageName        = "New Stage"
	newStageDescription = "Description of the new stage"
)

// TemplateService edits the process-wide stage template. Every mutation
// returns the saved list.
type TemplateService interface {
	List() ([]models.StageDefinition, error)
	Replace(caller *models.Identity, entries []models.StageDefinition) ([]models.StageDefinition, error)
	Add(caller *models.Identity) ([]models.StageDefinition, error)
	Remove(caller *models.Identity, index int) ([]models.StageDefinition, error)
	Move(caller *models.Identity, from, to int) ([]models.StageDefinition, error)
	Edit(caller *models.Identity, index int, name, description string) ([]models.StageDefinition, error)
}

type templateService struct {
	mu    sync.Mutex
	local repositories.LocalStore
}

func NewTemplateService(local repositories.LocalStore) TemplateService {
	return &templateService{local: local}
}

func requireTemplateEditor(caller *models.Identity) error {
	role := models.RoleUser
	if caller != nil {
		role = caller.Role
	}
	return authz.Require(role, authz.ActionEditTemplate)
}

func (s *templateService) List() ([]models.StageDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *templateService) load() ([]models.StageDefinition, error) {
	b, err := s.local.GetItem(TemplateKey)
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultStageTemplate(), nil
	}
	if err != nil {
		return nil, err
	}
	var defs []models.StageDefinition
	if err := json.Unmarshal(b, &defs); err != nil || len(defs) == 0 {
		log.Printf("[template][load] unusable saved template, using default: %v", err)
		return models.DefaultStageTemplate(), nil
	}
	return defs, nil
}

func (s *templateService) save(defs []models.StageDefinition) ([]models.StageDefinition, error) {
	if err := validateTemplate(defs); err != nil {
		return nil, err
	}
	b, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	if err := s.local.SetItem(TemplateKey, b); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	log.Printf("[template][save] stages=%d", len(defs))
	return defs, nil
}

func validateTemplate(defs []models.StageDefinition) error {
	if len(defs) == 0 {
		return &models.ValidationError{Field: "stages", Message: "template needs at least one stage"}
	}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.ID) == "" {
			return &models.ValidationError{Field: fmt.Sprintf("stages[%d].id", i), Message: "is required"}
		}
		if seen[d.ID] {
			return &models.ValidationError{Field: fmt.Sprintf("stages[%d].id", i), Message: fmt.Sprintf("duplicate id %q", d.ID)}
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Name) == "" {
			return &models.ValidationError{Field: fmt.Sprintf("stages[%d].name", i), Message: "is required"}
		}
	}
	return nil
}

func checkIndex(field string, i, n int) error {
	if i < 0 || i >= n {
		return &models.ValidationError{Field: field, Message: fmt.Sprintf("index %d out of range [0,%d)", i, n)}
	}
	return nil
}

// mutate runs fn over a copy of the current template under the lock.
func (s *templateService) mutate(caller *models.Identity, fn func([]models.StageDefinition) ([]models.StageDefinition, error)) ([]models.StageDefinition, error) {
	if err := requireTemplateEditor(caller); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load()
	if err != nil {
		return nil, err
	}
	next, err := fn(append([]models.StageDefinition(nil), cur...))
	if err != nil {
		return nil, err
	}
	return s.save(next)
}

func (s *templateService) Replace(caller *models.Identity, entries []models.StageDefinition) ([]models.StageDefinition, error) {
	return s.mutate(caller, func([]models.StageDefinition) ([]models.StageDefinition, error) {
		out := make([]models.StageDefinition, len(entries))
		for i, e := range entries {
			out[i] = models.StageDefinition{
				ID:          strings.TrimSpace(e.ID),
				Name:        strings.TrimSpace(e.Name),
				Description: strings.TrimSpace(e.Description),
			}
		}
		return out, nil
	})
}

func (s *templateService) Add(caller *models.Identity) ([]models.StageDefinition, error) {
	return s.mutate(caller, func(cur []models.StageDefinition) ([]models.StageDefinition, error) {
		return append(cur, models.StageDefinition{
			ID:          "stage-" + uuid.New().String(),
			Name:        newStageName,
			Description: newStageDescription,
		}), nil
	})
}

func (s *templateService) Remove(caller *models.Identity, index int) ([]models.StageDefinition, error) {
	return s.mutate(caller, func(cur []models.StageDefinition) ([]models.StageDefinition, error) {
		if err := checkIndex("index", index, len(cur)); err != nil {
			return nil, err
		}
		if len(cur) == 1 {
			return nil, &models.ValidationError{Field: "index", Message: "cannot remove the last stage"}
		}
		return append(cur[:index], cur[index+1:]...), nil
	})
}

// Move takes the entry at from out and reinserts it at to, shifting the ones between.
func (s *templateService) Move(caller *models.Identity, from, to int) ([]models.StageDefinition, error) {
	return s.mutate(caller, func(cur []models.StageDefinition) ([]models.StageDefinition, error) {
		if err := checkIndex("from", from, len(cur)); err != nil {
			return nil, err
		}
		if err := checkIndex("to", to, len(cur)); err != nil {
			return nil, err
		}
		item := cur[from]
		rest := append(cur[:from:from], cur[from+1:]...)
		out := make([]models.StageDefinition, 0, len(cur))
		out = append(out, rest[:to]...)
		out = append(out, item)
		out = append(out, rest[to:]...)
		return out, nil
	})
}

func (s *templateService) Edit(caller *models.Identity, index int, name, description string) ([]models.StageDefinition, error) {
	return s.mutate(caller, func(cur []models.StageDefinition) ([]models.StageDefinition, error) {
		if err := checkIndex("index", index, len(cur)); err != nil {
			return nil, err
		}
		cur[index].Name = strings.TrimSpace(name)
		cur[index].Description = strings.TrimSpace(description)
		return cur, nil
	})
}
