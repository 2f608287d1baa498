package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/testutil"
)

func TestNotes_RequireVerifiedSession(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		ts := testutil.NewTestServer(t)

		resp := ts.Request(t, http.MethodGet, "/notes", nil, nil)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Missing token")
	})

	t.Run("unverified account", func(t *testing.T) {
		ts := testutil.NewTestServer(t)
		user, password := testutil.NewUserBuilder().Unverified().Build(t, ts.DB.DB)
		cookie := testutil.Login(t, ts, user.Email, password)

		resp := ts.Request(t, http.MethodGet, "/notes", nil, cookie)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Email is not verified")
	})

	t.Run("verification mid-session takes effect on the next request", func(t *testing.T) {
		ts := testutil.NewTestServer(t)
		user, password := testutil.NewUserBuilder().Unverified().Build(t, ts.DB.DB)
		cookie := testutil.Login(t, ts, user.Email, password)

		resp := ts.Request(t, http.MethodGet, "/notes", nil, cookie)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		// Flip the flag directly; the gate re-reads the store every request,
		// so the same token now passes.
		require.NoError(t, ts.DB.DB.Model(&domain.User{}).Where("id = ?", user.ID).Update("is_verified", true).Error)

		resp = ts.Request(t, http.MethodGet, "/notes", nil, cookie)
		defer resp.Body.Close()
		testutil.AssertSuccessResponse(t, resp, http.StatusOK, "No notes available")
	})
}

func TestNotes_CRUD(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	cookie := testutil.Login(t, ts, user.Email, password)

	// Empty list first.
	resp := ts.Request(t, http.MethodGet, "/notes", nil, cookie)
	env := testutil.AssertSuccessResponse(t, resp, http.StatusOK, "No notes available")
	resp.Body.Close()
	assert.Equal(t, "[]", string(env.Data))

	// Create.
	resp = ts.Request(t, http.MethodPost, "/notes", map[string]string{
		"title":   "groceries",
		"content": "- milk\n- eggs",
	}, cookie)
	env = testutil.AssertSuccessResponse(t, resp, http.StatusOK, "Note added succesfully")
	resp.Body.Close()

	var created struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}
	testutil.DecodeData(t, env, &created)
	require.NotZero(t, created.ID)
	assert.Equal(t, "groceries", created.Title)

	// Read.
	resp = ts.Request(t, http.MethodGet, fmt.Sprintf("/notes/%d", created.ID), nil, cookie)
	testutil.AssertSuccessResponse(t, resp, http.StatusOK, "Note succesfully retrieved")
	resp.Body.Close()

	// Update.
	resp = ts.Request(t, http.MethodPut, fmt.Sprintf("/notes/%d", created.ID), map[string]string{
		"title":   "shopping",
		"content": "- milk",
	}, cookie)
	env = testutil.AssertSuccessResponse(t, resp, http.StatusOK, "Note succesfully edited")
	resp.Body.Close()

	var updated struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	testutil.DecodeData(t, env, &updated)
	assert.Equal(t, "shopping", updated.Title)
	assert.Equal(t, "- milk", updated.Content)

	// List now has one note.
	resp = ts.Request(t, http.MethodGet, "/notes", nil, cookie)
	env = testutil.AssertSuccessResponse(t, resp, http.StatusOK, "Notes retrieved")
	resp.Body.Close()

	var notes []struct {
		ID uint `json:"id"`
	}
	testutil.DecodeData(t, env, &notes)
	assert.Len(t, notes, 1)

	// Delete.
	resp = ts.Request(t, http.MethodDelete, fmt.Sprintf("/notes/%d", created.ID), nil, cookie)
	env = testutil.AssertSuccessResponse(t, resp, http.StatusOK, "Note succesfully deleted")
	resp.Body.Close()

	var deleted struct {
		RowsAffected int64 `json:"rowsAffected"`
	}
	testutil.DecodeData(t, env, &deleted)
	assert.Equal(t, int64(1), deleted.RowsAffected)

	// Gone.
	resp = ts.Request(t, http.MethodGet, fmt.Sprintf("/notes/%d", created.ID), nil, cookie)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, fmt.Sprintf("Note with id = %d not found", created.ID))
	resp.Body.Close()
}

func TestNotes_Validation(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	cookie := testutil.Login(t, ts, user.Email, password)

	t.Run("create with missing fields", func(t *testing.T) {
		resp := ts.Request(t, http.MethodPost, "/notes", map[string]string{"title": "no content"}, cookie)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Missing mandatory fields")
	})

	t.Run("non-numeric note id", func(t *testing.T) {
		resp := ts.Request(t, http.MethodGet, "/notes/abc", nil, cookie)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid note id")
	})
}

func TestNotes_CrossUserIsolation(t *testing.T) {
	ts := testutil.NewTestServer(t)

	owner, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	note := testutil.NewNoteBuilder().WithOwner(owner).Build(t, ts.DB.DB)

	intruder, intruderPassword := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	cookie := testutil.Login(t, ts, intruder.Email, intruderPassword)

	wantMessage := fmt.Sprintf("Note with id = %d not found", note.ID)

	resp := ts.Request(t, http.MethodGet, fmt.Sprintf("/notes/%d", note.ID), nil, cookie)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, wantMessage)
	resp.Body.Close()

	resp = ts.Request(t, http.MethodPut, fmt.Sprintf("/notes/%d", note.ID), map[string]string{
		"title":   "stolen",
		"content": "x",
	}, cookie)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, wantMessage)
	resp.Body.Close()

	resp = ts.Request(t, http.MethodDelete, fmt.Sprintf("/notes/%d", note.ID), nil, cookie)
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, wantMessage)
	resp.Body.Close()
}
