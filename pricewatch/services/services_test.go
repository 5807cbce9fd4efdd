package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgwatch/pricewatch/pricewatch"
	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories/memstore"
	"github.com/tcgwatch/pricewatch/pricewatch/scheduler"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestImageMirror(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	store := &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
	mirror := newImageMirror(store, "cards-bucket", "/pricewatch/")

	mirror.MirrorCardImage(context.Background(), &models.Card{ID: 1, SetName: "Scarlet & Violet 151", SetNumber: "25", ImageURL: srv.URL + "/pika.jpg?v=2"})
	mirror.MirrorCardImage(context.Background(), &models.Card{ID: 2, SetName: "151", SetNumber: "26", ImageURL: srv.URL + "/missing.png"})
	mirror.MirrorCardImage(context.Background(), &models.Card{ID: 3, SetName: "151", SetNumber: "27"})
	mirror.Wait()

	require.Len(t, store.objects, 1)
	key := "pricewatch/cards/scarlet-violet-151/25.jpg"
	assert.Equal(t, []byte("jpeg-bytes"), store.objects[key])
	assert.Equal(t, "image/jpeg", store.types[key])
}

func TestImageMirrorDisabledWithoutBucket(t *testing.T) {
	mirror, err := NewImageMirror(context.Background(), pricewatch.ImagesConfig{})
	require.NoError(t, err)
	assert.Nil(t, mirror)
}

func TestObjectKey(t *testing.T) {
	m := newImageMirror(nil, "b", "")

	tests := []struct {
		name string
		card models.Card
		want string
	}{
		{"plain", models.Card{SetName: "151", SetNumber: "25", ImageURL: "https://img/25_hires.png"}, "cards/151/25.png"},
		{"no extension", models.Card{SetName: "Base", SetNumber: "4", ImageURL: "https://img/4"}, "cards/base/4.png"},
		{"unknown set", models.Card{SetName: "???", SetNumber: "000", ImageURL: "https://img/x.webp"}, "cards/unknown/000.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ObjectKey(&tt.card); got != tt.want {
				t.Errorf("ObjectKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeSender struct {
	embeds []discord.Embed
}

func (f *fakeSender) CreateEmbeds(embeds []discord.Embed, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.embeds = append(f.embeds, embeds...)
	return &discord.Message{}, nil
}

func TestRunNotifier(t *testing.T) {
	sender := &fakeSender{}
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := &RunNotifier{sender: sender, now: func() time.Time { return stamp }}

	err := n.NotifyRun(context.Background(), &scheduler.Report{RunID: "run-1", Message: "Successfully updated prices for 3 cards", Updated: 3, Total: 10})
	require.NoError(t, err)

	require.Len(t, sender.embeds, 1)
	embed := sender.embeds[0]
	assert.Equal(t, "Successfully updated prices for 3 cards", embed.Description)
	assert.Equal(t, colorSuccess, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "3", embed.Fields[0].Value)
	assert.Equal(t, "10", embed.Fields[1].Value)
}

func TestNewRunNotifier(t *testing.T) {
	n, err := NewRunNotifier(pricewatch.NotifyConfig{})
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = NewRunNotifier(pricewatch.NotifyConfig{WebhookID: "not-a-number", WebhookToken: "t"})
	assert.Error(t, err)
}

func TestCardSearch(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	for _, c := range []*models.Card{
		{Name: "Pikachu", JapaneseName: "ピカチュウ", SetName: "151", SetNumber: "25"},
		{Name: "Raichu", SetName: "151", SetNumber: "26"},
		{Name: "Charizard ex", SetName: "151", SetNumber: "6"},
	} {
		require.NoError(t, store.Cards().Create(ctx, c))
	}
	search := NewCardSearch(store.Cards())

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"substring", "chu", 10, []string{"Pikachu", "Raichu"}},
		{"typo tolerant", "pkchu", 10, []string{"Pikachu"}},
		{"japanese", "ピカチュウ", 10, []string{"Pikachu"}},
		{"no match", "mewtwo", 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := search.Search(ctx, tt.query, tt.limit)
			require.NoError(t, err)
			got := make([]string, 0, len(cards))
			for _, c := range cards {
				got = append(got, c.Name)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	limited, err := search.Search(ctx, "chu", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := search.Search(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
