package board

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tributes/internal/identity"
	"tributes/internal/kv"
	"tributes/internal/message"
	"tributes/internal/message/local"
	"tributes/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T, uid string, slots kv.Slots) *Board {
	t.Helper()
	ids := identity.Fixed(uid)
	repo := repository.New(repository.ModeLocal, local.New(slots, ids, 0), ids, nil)
	b := New(repo, 1612)
	require.NoError(t, b.Load(context.Background()))
	return b
}

func post(t *testing.T, b *Board, name string, c message.Category) *message.Message {
	t.Helper()
	m, err := b.Post(context.Background(), message.Draft{Name: name, Category: c, Content: "hi"}, nil)
	require.NoError(t, err)
	return m
}

func TestPostPrependsAndFilters(t *testing.T) {
	b := newBoard(t, "user_a", kv.NewMemory())

	first := post(t, b, "Ana", message.CategoryWishes)
	second := post(t, b, "Bo", message.CategoryMemory)

	all := b.View(All)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	mem := b.View(Filter(message.CategoryMemory))
	require.Len(t, mem, 1)
	assert.Equal(t, second.ID, mem[0].ID)

	assert.Empty(t, b.View(Filter(message.CategoryQuote)))
}

func TestLoadSortsNewestFirst(t *testing.T) {
	slots := kv.NewMemory()
	b := newBoard(t, "user_a", slots)
	post(t, b, "Ana", message.CategoryWishes)
	post(t, b, "Bo", message.CategoryJoke)

	fresh := newBoard(t, "user_b", slots)
	v := fresh.View(All)
	require.Len(t, v, 2)
	assert.GreaterOrEqual(t, v[0].Timestamp, v[1].Timestamp)
}

func TestEditReplacesInPlace(t *testing.T) {
	b := newBoard(t, "user_a", kv.NewMemory())
	m := post(t, b, "Ana", message.CategoryWishes)
	post(t, b, "Bo", message.CategoryJoke)

	content := "edited"
	got, err := b.Edit(context.Background(), m.ID, message.Patch{Content: &content}, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	v := b.View(All)
	assert.Equal(t, "edited", v[1].Content)
}

func TestEditByOtherAuthorNotSaved(t *testing.T) {
	slots := kv.NewMemory()
	owner := newBoard(t, "user_a", slots)
	m := post(t, owner, "Ana", message.CategoryWishes)

	other := newBoard(t, "user_b", slots)
	content := "nope"
	_, err := other.Edit(context.Background(), m.ID, message.Patch{Content: &content}, nil)
	assert.ErrorIs(t, err, ErrNotSaved)
	assert.ErrorIs(t, err, message.ErrNotFound)
	assert.Equal(t, "hi", other.View(All)[0].Content)
}

func TestDelete(t *testing.T) {
	slots := kv.NewMemory()
	owner := newBoard(t, "user_a", slots)
	m := post(t, owner, "Ana", message.CategoryWishes)

	other := newBoard(t, "user_b", slots)
	ok, err := other.Delete(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, other.View(All), 1)

	ok, err = owner.Delete(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, owner.View(All))
}

func TestPostWithMedia(t *testing.T) {
	b := newBoard(t, "user_a", kv.NewMemory())
	m, err := b.Post(context.Background(),
		message.Draft{Name: "Ana", Category: message.CategoryJoke, Content: "look"},
		&message.Upload{Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("v")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(m.MediaURL, "data:video/mp4;base64,"))
	assert.Equal(t, message.MediaVideo, m.MediaType)
}

type failingRepo struct {
	Repository
}

func (failingRepo) UploadMedia(context.Context, message.Upload) (string, error) {
	return "", &message.UploadError{Reason: "no public URL returned"}
}

func (failingRepo) Add(context.Context, message.Draft) (*message.Message, error) {
	return nil, errors.New("connection reset")
}

func TestFailedSubmitIsReported(t *testing.T) {
	b := New(failingRepo{}, 0)
	d := message.Draft{Name: "Ana", Category: message.CategoryJoke, Content: "x"}

	_, err := b.Post(context.Background(), d, &message.Upload{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNotSaved)
	var ue *message.UploadError
	assert.ErrorAs(t, err, &ue)

	_, err = b.Post(context.Background(), d, nil)
	assert.ErrorIs(t, err, ErrNotSaved)
	assert.Empty(t, b.View(All))
}

type rejectingRepo struct {
	Repository
	discarded []string
}

func (r *rejectingRepo) UploadMedia(context.Context, message.Upload) (string, error) {
	return "https://cdn.example.com/media/tributes/1-abc.png", nil
}

func (r *rejectingRepo) Add(context.Context, message.Draft) (*message.Message, error) {
	return nil, errors.New("connection reset")
}

func (r *rejectingRepo) Update(context.Context, string, message.Patch) (*message.Message, error) {
	return nil, message.ErrNotFound
}

func (r *rejectingRepo) DiscardMedia(_ context.Context, url string) error {
	r.discarded = append(r.discarded, url)
	return nil
}

func TestFailedWriteDiscardsUploadedMedia(t *testing.T) {
	repo := &rejectingRepo{}
	b := New(repo, 0)
	ctx := context.Background()
	up := func() *message.Upload {
		return &message.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")}
	}

	_, err := b.Post(ctx, message.Draft{Name: "Ana", Category: message.CategoryJoke, Content: "x"}, up())
	assert.ErrorIs(t, err, ErrNotSaved)

	content := "y"
	_, err = b.Edit(ctx, "someone-elses", message.Patch{Content: &content}, up())
	assert.ErrorIs(t, err, message.ErrNotFound)

	// without an upload there is nothing to release
	_, err = b.Post(ctx, message.Draft{Name: "Ana", Category: message.CategoryJoke, Content: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotSaved)

	assert.Equal(t, []string{
		"https://cdn.example.com/media/tributes/1-abc.png",
		"https://cdn.example.com/media/tributes/1-abc.png",
	}, repo.discarded)
}

func TestStats(t *testing.T) {
	b := newBoard(t, "user_a", kv.NewMemory())
	post(t, b, "Ana", message.CategoryWishes)
	post(t, b, "Ana", message.CategoryMemory)
	post(t, b, "Bo", message.CategoryWishes)

	st := b.Stats()
	assert.Equal(t, 3, st.TotalMessages)
	assert.Equal(t, 2, st.TeamMembers)
	assert.Equal(t, 1612, st.TenureDays)
	assert.Equal(t, 2, st.Categories[message.CategoryWishes])
	assert.Equal(t, []message.Category{message.CategoryMemory, message.CategoryWishes}, st.Populated)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, All, f)

	f, err = ParseFilter("Inside Joke")
	require.NoError(t, err)
	assert.Equal(t, Filter(message.CategoryJoke), f)

	_, err = ParseFilter("Roasts")
	assert.ErrorIs(t, err, message.ErrInvalid)
}
