package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{domain.ErrOnboardingRequired, http.StatusForbidden, CodeOnboardingRequired},
		{domain.ErrEmailTaken, http.StatusConflict, CodeEmailTaken},
		{domain.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
		{domain.ErrInvalidRole, http.StatusBadRequest, CodeInvalidRole},
		{domain.ErrInvalidReferralCode, http.StatusBadRequest, CodeInvalidReferralCode},
		{domain.ErrInvalidMedia, http.StatusBadRequest, CodeInvalidMedia},
		{domain.ErrInvalidCursor, http.StatusBadRequest, CodeInvalidCursor},
		{domain.ErrAlreadyReported, http.StatusConflict, CodeAlreadyReported},
		{domain.ErrCannotReportOwnPost, http.StatusBadRequest, CodeCannotReportOwnPost},
		{domain.ErrAlreadyResolved, http.StatusConflict, CodeAlreadyResolved},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge},
		{domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, CodeUnsupportedMedia},
		{domain.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrPostNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrQueueEntryNotFound, http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("get post: %w", domain.ErrPostNotFound), http.StatusNotFound, CodeNotFound},
		{errors.Join(ErrInvalidBody, errors.New("unexpected EOF")), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, resp, _ := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("create post: %w", validation.Errors{
		"content": errors.New("cannot be blank"),
	})

	WriteError(rec, err, logger.Discard())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, map[string]string{"content": "cannot be blank"}, body.Error.Fields)
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"), logger.Discard())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "fields")
}

func TestParseFeedQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.FeedQuery
	}{
		{"defaults", "", domain.FeedQuery{}},
		{"all kinds", "kind=all&sort=oldest", domain.FeedQuery{Sort: domain.FeedSortOldest}},
		{"portfolio page", "cursor=abc&limit=5&kind=portfolio",
			domain.FeedQuery{Cursor: "abc", Limit: 5, LimitSet: true, Kind: domain.PostKindPortfolio}},
		{"limit clamped later", "limit=500", domain.FeedQuery{Limit: 500, LimitSet: true}},
		{"explicit zero", "limit=0", domain.FeedQuery{LimitSet: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := parseFeedQuery(values)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFeedQuery_Invalid(t *testing.T) {
	values := url.Values{
		"limit": {"ten"},
		"sort":  {"popular"},
		"kind":  {"video"},
	}

	_, err := parseFeedQuery(values)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Contains(t, verrs, "limit")
	assert.Contains(t, verrs, "sort")
	assert.Contains(t, verrs, "kind")
}

func TestParsePage(t *testing.T) {
	limit, offset, err := parsePage(url.Values{"limit": {"10"}, "offset": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	_, _, err = parsePage(url.Values{"offset": {"-1"}})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "offset")
}
