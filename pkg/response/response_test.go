package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func TestErrorIncludesConflictDescriptors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	conflict := &models.ScheduleConflictError{
		Type:    "MOVE",
		Message: "move collides",
		Errors:  []models.ScheduleConflict{{SessionID: "s-1", Dimension: "teacher"}},
	}
	Error(c, appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "conflict detected"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error *appErrors.Error       `json:"error"`
		Meta  map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrConflict.Code, body.Error.Code)
	assert.Equal(t, "MOVE", body.Meta["conflictType"])
	assert.Len(t, body.Meta["conflicts"], 1)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorWithoutConflictHasNoMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "meta")
}

func TestItemizedKeepsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Itemized(c, appErrors.Clone(appErrors.ErrConflict, "no item succeeded"), gin.H{"failed": 2})

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":2`)
	assert.Contains(t, w.Body.String(), "no item succeeded")
}
