package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

func ids(defs []models.StageDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}

func TestTemplateDefaultsWhenNothingSaved(t *testing.T) {
	env := newTestEnv(t, nil)
	list, err := env.templates.List()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStageTemplate(), list)
}

func TestTemplateDefaultsWhenSavedDataUnusable(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, raw := range []string{"{oops", "[]", "null"} {
		require.NoError(t, env.local.SetItem(TemplateKey, []byte(raw)))
		list, err := env.templates.List()
		require.NoError(t, err)
		assert.Len(t, list, 11, raw)
	}
}

func TestTemplateAddRemoveEdit(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@beyond-wm.com")

	list, err := env.templates.Add(admin)
	require.NoError(t, err)
	require.Len(t, list, 12)
	added := list[11]
	assert.True(t, strings.HasPrefix(added.ID, "stage-"))
	assert.Equal(t, "New Stage", added.Name)
	assert.Equal(t, "Description of the new stage", added.Description)

	list, err = env.templates.Edit(admin, 11, "  Green Card  ", "I-829 approved")
	require.NoError(t, err)
	assert.Equal(t, "Green Card", list[11].Name)
	assert.Equal(t, added.ID, list[11].ID, "editing keeps the id")

	_, err = env.templates.Edit(admin, 11, " ", "")
	assert.True(t, models.IsValidationError(err))

	list, err = env.templates.Remove(admin, 0)
	require.NoError(t, err)
	assert.Len(t, list, 11)
	assert.Equal(t, "signed-package", list[0].ID)

	_, err = env.templates.Remove(admin, 42)
	assert.True(t, models.IsValidationError(err))

	saved, err := env.templates.List()
	require.NoError(t, err)
	assert.Equal(t, list, saved)
}

func TestTemplateMove(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@beyond-wm.com")
	_, err := env.templates.Replace(admin, []models.StageDefinition{
		{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "d", Name: "D"},
	})
	require.NoError(t, err)

	list, err := env.templates.Move(admin, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(list))

	list, err = env.templates.Move(admin, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(list))

	list, err = env.templates.Move(admin, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(list))

	_, err = env.templates.Move(admin, 0, 4)
	assert.True(t, models.IsValidationError(err))
	_, err = env.templates.Move(admin, -1, 0)
	assert.True(t, models.IsValidationError(err))
}

func TestTemplateCannotRemoveLastStage(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@beyond-wm.com")
	_, err := env.templates.Replace(admin, []models.StageDefinition{{ID: "only", Name: "Only"}})
	require.NoError(t, err)

	_, err = env.templates.Remove(admin, 0)
	assert.True(t, models.IsValidationError(err))

	list, err := env.templates.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateReplaceValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.login(t, "admin@beyond-wm.com")

	cases := map[string][]models.StageDefinition{
		"empty":        {},
		"missing id":   {{ID: " ", Name: "A"}},
		"missing name": {{ID: "a", Name: ""}},
		"duplicate id": {{ID: "a", Name: "A"}, {ID: "a", Name: "B"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.templates.Replace(admin, entries)
			assert.True(t, models.IsValidationError(err))
		})
	}

	list, err := env.templates.List()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStageTemplate(), list, "rejected writes change nothing")
}

func TestTemplateEditsNeedAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t, "admin@beyond-wm.com")
	user := env.login(t, "user@beyond-wm.com")

	for _, caller := range []*models.Identity{user, nil} {
		_, err := env.templates.Add(caller)
		assert.True(t, models.IsForbiddenError(err))
		_, err = env.templates.Remove(caller, 0)
		assert.True(t, models.IsForbiddenError(err))
		_, err = env.templates.Move(caller, 0, 1)
		assert.True(t, models.IsForbiddenError(err))
		_, err = env.templates.Edit(caller, 0, "x", "y")
		assert.True(t, models.IsForbiddenError(err))
		_, err = env.templates.Replace(caller, models.DefaultStageTemplate()[:1])
		assert.True(t, models.IsForbiddenError(err))
	}

	list, err := env.templates.List()
	require.NoError(t, err)
	assert.Len(t, list, 11)
}

func TestTemplatePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	admin := &models.Identity{UserID: "a", Role: models.RoleAdmin}

	local, err := repositories.OpenLocalStore(dir, false)
	require.NoError(t, err)
	_, err = NewTemplateService(local).Edit(admin, 0, "Kick-off", "")
	require.NoError(t, err)
	require.NoError(t, local.Close())

	local, err = repositories.OpenLocalStore(dir, false)
	require.NoError(t, err)
	defer local.Close()
	list, err := NewTemplateService(local).List()
	require.NoError(t, err)
	assert.Equal(t, "Kick-off", list[0].Name)
}
