package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailResponse_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{logic.ErrNotAuthenticated, http.StatusUnauthorized, "User not authenticated"},
		{logic.ErrProjectNotFound, http.StatusNotFound, "Project not found"},
		{&logic.Error{Kind: logic.KindForbidden, Msg: "nope"}, http.StatusForbidden, "nope"},
		{&logic.Error{Kind: logic.KindPrecondition, Msg: "wait"}, http.StatusConflict, "wait"},
		{&logic.Error{Kind: logic.KindInvalid, Msg: "bad"}, http.StatusBadRequest, "bad"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		FailResponse(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, tc.msg, resp.Message)
		assert.Nil(t, resp.Data)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, int64(3), p.TotalPage)

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Zero(t, p.TotalPage)

	p = NewPagination(1, 500, 150)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, int64(2), p.TotalPage)
}

func TestBindOptionalJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		body   io.Reader
		length int64
		ok     bool
		proof  string
	}{
		{"no body", nil, 0, true, ""},
		{"sized", strings.NewReader(`{"proof":"https://img.test/a.jpg"}`), -2, true, "https://img.test/a.jpg"},
		{"chunked", strings.NewReader(`{"proof":"https://img.test/b.jpg"}`), -1, true, "https://img.test/b.jpg"},
		{"chunked empty", strings.NewReader(""), -1, true, ""},
		{"chunked garbage", strings.NewReader("{proof"), -1, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/milestones/m1/complete", tc.body)
			if tc.length != -2 {
				c.Request.ContentLength = tc.length
			}

			var req MilestoneProofRequest
			assert.Equal(t, tc.ok, bindOptionalJSON(c, &req))
			assert.Equal(t, tc.proof, req.Proof)
			if !tc.ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}
