package repository

import (
	"testing"

	"booksearch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func book(id string) models.SavedBook {
	return models.SavedBook{BookID: id, Title: "title " + id}
}

func ids(books []models.SavedBook) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.BookID)
	}
	return out
}

func TestMutationApply(t *testing.T) {
	start := []models.SavedBook{book("a"), book("b")}

	tests := []struct {
		name string
		m    Mutation
		want []string
	}{
		{"add new appends", AddToSaved(book("c")), []string{"a", "b", "c"}},
		{"add existing is a no-op", AddToSaved(models.SavedBook{BookID: "a", Title: "other"}), []string{"a", "b"}},
		{"remove present", RemoveFromSaved("a"), []string{"b"}},
		{"remove absent is a no-op", RemoveFromSaved("zzz"), []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Apply(start)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []string{"a", "b"}, ids(start), "input must not be modified")
		})
	}
}

func TestMutationApply_KeepsFirstEntryOnDuplicateAdd(t *testing.T) {
	got := AddToSaved(models.SavedBook{BookID: "a", Title: "other"}).Apply([]models.SavedBook{book("a")})
	require.Len(t, got, 1)
	assert.Equal(t, "title a", got[0].Title)
}

func TestMutationValidate(t *testing.T) {
	assert.NoError(t, AddToSaved(book("a")).Validate())
	assert.NoError(t, RemoveFromSaved("a").Validate())
	assert.Error(t, RemoveFromSaved("").Validate())
	assert.Error(t, Mutation{Kind: AddToSavedSet, BookID: "a", Book: book("b")}.Validate())
	assert.Error(t, Mutation{BookID: "a"}.Validate())
	assert.Equal(t, "addToSavedSet", AddToSavedSet.String())
	assert.Equal(t, "MutationKind(9)", MutationKind(9).String())
}
