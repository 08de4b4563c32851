package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedBook struct {
	Title string `json:"title" binding:"required"`
}

type sample struct {
	Email  string     `json:"email" binding:"required,email"`
	Name   string     `json:"name" binding:"omitempty,min=2"`
	BookID string     `json:"bookId" binding:"bookid"`
	Book   nestedBook `json:"book"`
	Count  int        `json:"count" binding:"max=5"`
}

func TestNew_UsesJSONNamesAndNamespaces(t *testing.T) {
	v := New()

	err := v.Struct(sample{Email: "nope", Name: "a", Count: 9})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 2 characters long", details["name"])
	assert.Equal(t, "must be 1 to 128 printable ASCII characters", details["bookId"])
	assert.Equal(t, "is required", details["book.title"])
	assert.Equal(t, "must be at most 5", details["count"])
}

func TestNew_ValidStruct(t *testing.T) {
	err := New().Struct(sample{Email: "a@b.co", BookID: "zyTCAlFPjgYC", Book: nestedBook{Title: "Dune"}})
	assert.NoError(t, err)
}

func TestToDetails_JSONErrors(t *testing.T) {
	assert.Nil(t, ToDetails(nil))

	var dst sample
	err := json.Unmarshal([]byte(`{"email":`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.NewDecoder(strings.NewReader(`{"email":`)).Decode(&dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.NewDecoder(strings.NewReader(``)).Decode(&dst)
	assert.Equal(t, map[string]string{"payload": "is required"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"count":"three"}`), &dst)
	assert.Equal(t, map[string]string{"count": "must be a int"}, ToDetails(err))

	dec := json.NewDecoder(strings.NewReader(`{"color":"red"}`))
	dec.DisallowUnknownFields()
	assert.Equal(t, map[string]string{"color": "is not allowed"}, ToDetails(dec.Decode(&dst)))

	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
}

func TestInit_GinBindingReportsJSONNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Init()

	var details map[string]string
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var in sample
		details = ToDetails(c.ShouldBindJSON(&in))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bookId":"x","book":{"title":"t"}}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]string{"email": "is required"}, details)
}
