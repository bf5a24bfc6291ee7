package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var investorValidate *validator.Validate

func init() {
	investorValidate = validator.New()
	investorValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type Investor struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Country           string  `json:"country"`
	InvestmentAmount  float64 `json:"investmentAmount"`
	DateAdded         string  `json:"dateAdded"`
	CurrentStageIndex int     `json:"currentStageIndex"`
	Stages            []Stage `json:"stages"`
	Notes             string  `json:"notes,omitempty"`
}

// InvestorFields is the input of NewInvestor.
type InvestorFields struct {
	Name             string  `json:"name" validate:"required,max=200"`
	Email            string  `json:"email" validate:"required,email"`
	Country          string  `json:"country" validate:"required,max=100"`
	InvestmentAmount float64 `json:"investmentAmount" validate:"gte=0"`
	Notes            string  `json:"notes"`
}

// InvestorPatch carries a partial update; nil fields are left untouched.
// CurrentStageIndex is accepted on the wire but never applied.
type InvestorPatch struct {
	Name              *string  `json:"name,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Country           *string  `json:"country,omitempty"`
	InvestmentAmount  *float64 `json:"investmentAmount,omitempty"`
	CurrentStageIndex *int     `json:"currentStageIndex,omitempty"`
	Stages            []Stage  `json:"stages,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

// TouchesIdentity reports whether the patch edits name, email, country or amount.
func (p InvestorPatch) TouchesIdentity() bool {
	return p.Name != nil || p.Email != nil || p.Country != nil || p.InvestmentAmount != nil
}

func (f *InvestorFields) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Country = strings.TrimSpace(f.Country)
}

func (f InvestorFields) Validate() error {
	f.normalize()
	if err := investorValidate.Struct(f); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "gte":
			msg = "must not be negative"
		case "email":
			msg = "must be a valid email address"
		case "max":
			msg = "is too long"
		}
		return &ValidationError{Field: fe.Field(), Message: msg}
	}
	return &ValidationError{Message: err.Error()}
}

// NewInvestor creates a record seeded from a copy of the current template.
func NewInvestor(fields InvestorFields, template []StageDefinition, now time.Time) (*Investor, error) {
	fields.normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return nil, &ValidationError{Field: "stages", Message: "template has no stages"}
	}
	return &Investor{
		ID:                uuid.New().String(),
		Name:              fields.Name,
		Email:             fields.Email,
		Country:           fields.Country,
		InvestmentAmount:  fields.InvestmentAmount,
		DateAdded:         now.Format(DateLayout),
		CurrentStageIndex: 0,
		Stages:            StagesFromTemplate(template),
		Notes:             fields.Notes,
	}, nil
}

// ApplyUpdate merges p over inv. The stage list keeps its length and order,
// each patched stage is normalized against the stored one, and
// currentStageIndex is always derived from the resulting stages.
func ApplyUpdate(inv Investor, p InvestorPatch, now time.Time) (Investor, error) {
	out := inv
	out.Stages = cloneStages(inv.Stages)

	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		out.Email = strings.TrimSpace(*p.Email)
	}
	if p.Country != nil {
		out.Country = strings.TrimSpace(*p.Country)
	}
	if p.InvestmentAmount != nil {
		out.InvestmentAmount = *p.InvestmentAmount
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.TouchesIdentity() {
		f := InvestorFields{Name: out.Name, Email: out.Email, Country: out.Country, InvestmentAmount: out.InvestmentAmount}
		if err := f.Validate(); err != nil {
			return inv, err
		}
	}
	if p.Stages != nil {
		if err := sameStageLayout(inv.Stages, p.Stages); err != nil {
			return inv, err
		}
		for i := range p.Stages {
			st, err := normalizeStage(i, out.Stages[i], p.Stages[i], now)
			if err != nil {
				return inv, err
			}
			out.Stages[i] = st
		}
	}
	out.CurrentStageIndex = DeriveCurrentIndex(out.Stages)
	return out, nil
}

// normalizeStage applies the completion state of next to the stored stage cur.
// Name and description stay as stored. A completed stage always carries a
// date: the one supplied, else the stored one, else today. Any other status
// carries none.
func normalizeStage(i int, cur, next Stage, now time.Time) (Stage, error) {
	field := fmt.Sprintf("stages[%d]", i)
	if next.Status != StatusUnset {
		if _, err := ParseStageStatus(string(next.Status)); err != nil {
			return cur, &ValidationError{Field: field + ".status", Message: fmt.Sprintf("unknown stage status %q", next.Status)}
		}
		if next.Completed != (next.Status == StatusCompleted) {
			return cur, &ValidationError{Field: field + ".status", Message: fmt.Sprintf("status %q contradicts completed=%v", next.Status, next.Completed)}
		}
	}
	if next.Completed == cur.Completed && next.Status == cur.Status && sameDate(next.CompletedDate, cur.CompletedDate) {
		return cur, nil
	}

	want := next.EffectiveStatus()
	out := SetStatus(cur, want, now)
	if want == StatusCompleted && next.CompletedDate != nil {
		if _, err := time.Parse(DateLayout, *next.CompletedDate); err != nil {
			return cur, &ValidationError{Field: field + ".completedDate", Message: "must be a YYYY-MM-DD date"}
		}
		d := *next.CompletedDate
		out.CompletedDate = &d
	}
	return out, nil
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameStageLayout(cur, next []Stage) error {
	if len(cur) != len(next) {
		return &ValidationError{Field: "stages", Message: "stage count cannot change after creation"}
	}
	for i := range cur {
		if cur[i].ID != next[i].ID {
			return &ValidationError{Field: "stages", Message: "stage order cannot change after creation"}
		}
	}
	return nil
}

func RecordNotes(inv Investor, text string) Investor {
	inv.Notes = text
	return inv
}

// StageIndex returns the position of the stage with id, or -1.
func (inv *Investor) StageIndex(stageID string) int {
	for i := range inv.Stages {
		if inv.Stages[i].ID == stageID {
			return i
		}
	}
	return -1
}

// Clone deep-copies the stage list so callers can mutate freely.
func (inv Investor) Clone() Investor {
	inv.Stages = cloneStages(inv.Stages)
	return inv
}
