package services

import (
	"context"
	"io"
	"time"

	"eb5tracker/internal/models"
	"eb5tracker/internal/pdf"
)

type TimelineService interface {
	Timeline(ctx context.Context, caller *models.Identity) (models.Timeline, error)
	TimelinePDF(ctx context.Context, caller *models.Identity, w io.Writer) error
}

type timelineService struct {
	investors InvestorService
	pdfGen    pdf.Generator
	now       func() time.Time
}

func NewTimelineService(investors InvestorService, pdfGen pdf.Generator) TimelineService {
	return &timelineService{investors: investors, pdfGen: pdfGen, now: time.Now}
}

func (s *timelineService) Timeline(ctx context.Context, caller *models.Identity) (models.Timeline, error) {
	list, err := s.investors.List(ctx, caller)
	if err != nil {
		return models.Timeline{}, err
	}
	return models.BuildTimeline(list)
}

func (s *timelineService) TimelinePDF(ctx context.Context, caller *models.Identity, w io.Writer) error {
	t, err := s.Timeline(ctx, caller)
	if err != nil {
		return err
	}
	return s.pdfGen.GenerateTimeline(w, pdf.TimelineData{
		Title:       "EB-5 Timeline Comparison",
		GeneratedAt: s.now(),
		Timeline:    t,
	})
}
