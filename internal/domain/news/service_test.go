package news

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/reconcile"
	"github.com/openchs/openchs-server/pkg/pagination"
)

type mockNewsRepo struct {
	byID   map[int64]*News
	nextID int64
}

func newMockNewsRepo() *mockNewsRepo {
	return &mockNewsRepo{byID: make(map[int64]*News)}
}

func (m *mockNewsRepo) FindByID(_ context.Context, id int64) (*News, error) {
	return m.byID[id], nil
}

func (m *mockNewsRepo) FindByTitle(_ context.Context, title string) (*News, error) {
	for _, n := range m.byID {
		if n.Title == title && !n.Voided {
			return n, nil
		}
	}
	return nil, nil
}

func (m *mockNewsRepo) ListActive(_ context.Context, limit, offset int) ([]*News, int, error) {
	var out []*News
	for id := int64(1); id <= m.nextID; id++ {
		if n, ok := m.byID[id]; ok && !n.Voided {
			out = append(out, n)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	if offset+limit < total {
		return out[offset : offset+limit], total, nil
	}
	return out[offset:], total, nil
}

func (m *mockNewsRepo) Save(_ context.Context, n *News) error {
	if n.IsNew() {
		m.nextID++
		n.ID = m.nextID
	}
	m.byID[n.ID] = n
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockNewsRepo) {
	repo := newMockNewsRepo()
	svc := NewService(repo, db.NoTx{})
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestSaveNews(t *testing.T) {
	svc, _ := newTestService()
	n, err := svc.SaveNews(context.Background(), NewsContract{Title: "Camp on Monday", Content: "Bring cards"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.UUID)
	assert.Equal(t, int64(1), n.ID)
	assert.Equal(t, fixedNow, n.LastModified)
}

func TestSaveNews_TitleTaken(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	require.NoError(t, err)

	_, err = svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	assert.ErrorIs(t, err, reconcile.ErrInvalidRequestState)
	assert.EqualError(t, err, "News with the title Camp already exists")
}

func TestEditNews_SameTitleIsAllowed(t *testing.T) {
	svc, _ := newTestService()
	n, err := svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	require.NoError(t, err)

	edited, err := svc.EditNews(context.Background(), n.ID, NewsContract{Title: "Camp", Content: "moved to Tuesday"})
	require.NoError(t, err)
	assert.Equal(t, n.UUID, edited.UUID)
	assert.Equal(t, "moved to Tuesday", edited.Content)
}

func TestEditNews_RenameOntoTakenTitle(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	require.NoError(t, err)
	other, err := svc.SaveNews(context.Background(), NewsContract{Title: "Drive"})
	require.NoError(t, err)

	_, err = svc.EditNews(context.Background(), other.ID, NewsContract{Title: "Camp"})
	assert.EqualError(t, err, "News with the title Camp already exists")
}

func TestEditNews_Missing(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.EditNews(context.Background(), 42, NewsContract{Title: "Camp"})
	assert.ErrorIs(t, err, reconcile.ErrReferenceNotFound)
	assert.EqualError(t, err, "no news found for id 42")
}

func TestDeleteNews_FreesTitle(t *testing.T) {
	svc, repo := newTestService()
	n, err := svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNews(context.Background(), n.ID))
	assert.True(t, repo.byID[n.ID].Voided)
	assert.Equal(t, "Camp_voided_1", repo.byID[n.ID].Title)

	_, err = svc.GetNews(context.Background(), n.ID)
	assert.ErrorIs(t, err, reconcile.ErrReferenceNotFound)

	_, err = svc.SaveNews(context.Background(), NewsContract{Title: "Camp"})
	assert.NoError(t, err)
}

func TestListNews_ExcludesVoided(t *testing.T) {
	svc, _ := newTestService()
	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.SaveNews(context.Background(), NewsContract{Title: title})
		require.NoError(t, err)
	}
	require.NoError(t, svc.DeleteNews(context.Background(), 2))

	page, err := svc.ListNews(context.Background(), pagination.Params{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalElements)
	assert.Equal(t, "A", page.Content[0].Title)
	assert.Equal(t, "C", page.Content[1].Title)
}
