package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eb5tracker/internal/models"
	"eb5tracker/internal/pdf"
	"eb5tracker/internal/repositories"
)

type recordingGenerator struct {
	got pdf.TimelineData
	err error
}

func (g *recordingGenerator) GenerateTimeline(w io.Writer, data pdf.TimelineData) error {
	g.got = data
	if g.err != nil {
		return g.err
	}
	_, err := w.Write([]byte("pdf"))
	return err
}

func TestTimelineFromDemoData(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewTimelineService(env.investors, &recordingGenerator{})

	tl, err := svc.Timeline(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tl.Rows, 4)
	assert.Len(t, tl.Header, 11)

	wei := tl.Rows[0]
	assert.Equal(t, "Wei Chen", wei.Name)
	assert.Equal(t, 6, wei.Completed)
	assert.Equal(t, 5, wei.CurrentStageIndex)
	assert.Equal(t, "Receive 800K", wei.CurrentStageName)
}

func TestTimelineEmptyCollection(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@beyond-wm.com")
	svc := NewTimelineService(env.investors, &recordingGenerator{})

	tl, err := svc.Timeline(context.Background(), admin)
	require.NoError(t, err)
	assert.NotNil(t, tl.Rows)
	assert.Empty(t, tl.Rows)
}

func TestTimelinePDFPassesRows(t *testing.T) {
	env := newTestEnv(t, nil)
	gen := &recordingGenerator{}
	svc := NewTimelineService(env.investors, gen)

	var buf bytes.Buffer
	require.NoError(t, svc.TimelinePDF(context.Background(), nil, &buf))
	assert.Equal(t, "pdf", buf.String())
	assert.Equal(t, "EB-5 Timeline Comparison", gen.got.Title)
	assert.Len(t, gen.got.Timeline.Rows, 4)
	assert.False(t, gen.got.GeneratedAt.IsZero())

	gen.err = errors.New("render failed")
	assert.Error(t, svc.TimelinePDF(context.Background(), nil, &buf))
}

func TestTimelinePropagatesLoadErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	gw := NewGateway(repositories.NewInvestorRepository(brokenKV{}), repositories.NewUserRepository(brokenKV{}), env.local)
	investors := NewInvestorService(gw, env.templates, InvestorOptions{})
	gen := &recordingGenerator{}
	svc := NewTimelineService(investors, gen)

	admin := &models.Identity{UserID: "a", Role: models.RoleAdmin}
	_, err := svc.Timeline(context.Background(), admin)
	assert.True(t, models.IsTransportError(err))

	var buf bytes.Buffer
	assert.True(t, models.IsTransportError(svc.TimelinePDF(context.Background(), admin, &buf)))
	assert.Zero(t, buf.Len())
}

func TestTimelinePDFRendersDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewTimelineService(env.investors, pdf.NewDocumentGenerator(""))

	var buf bytes.Buffer
	require.NoError(t, svc.TimelinePDF(context.Background(), nil, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestTimelineReportsStagelessRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.login(t, "admin@beyond-wm.com")

	broken := models.DemoInvestors()[0]
	broken.Stages = nil
	require.NoError(t, env.gateway.SaveAll(ctx, admin, []models.Investor{broken}))

	svc := NewTimelineService(env.investors, &recordingGenerator{})
	_, err := svc.Timeline(ctx, admin)
	assert.True(t, models.IsValidationError(err))
	assert.Contains(t, err.Error(), "Wei Chen")

	var buf bytes.Buffer
	assert.True(t, models.IsValidationError(svc.TimelinePDF(ctx, admin, &buf)))
}
