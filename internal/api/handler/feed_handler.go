package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
	logger      *logger.Logger
}

func NewFeedHandler(feedService *service.FeedService, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger.Component("handler/feed"),
	}
}

func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	q, err := parseFeedQuery(r.URL.Query())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	page, err := h.feedService.Feed(r.Context(), user, q)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, page, h.logger)
}

// parseFeedQuery reads cursor, limit, sort and kind. Out of range limits are
// clamped later; only malformed values are rejected here.
func parseFeedQuery(values url.Values) (domain.FeedQuery, error) {
	q := domain.FeedQuery{Cursor: values.Get("cursor")}
	errs := validation.Errors{}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			errs["limit"] = errors.New("must be an integer")
		}
		q.Limit, q.LimitSet = limit, true
	}

	switch sort := domain.FeedSort(values.Get("sort")); sort {
	case "", domain.FeedSortLatest, domain.FeedSortOldest:
		q.Sort = sort
	default:
		errs["sort"] = errors.New("must be one of latest, oldest")
	}

	switch kind := values.Get("kind"); kind {
	case "", "all":
	case string(domain.PostKindStandard), string(domain.PostKindPortfolio):
		q.Kind = domain.PostKind(kind)
	default:
		errs["kind"] = errors.New("must be one of all, standard, portfolio")
	}

	return q, errs.Filter()
}

// parsePage reads limit and offset for the admin listings.
func parsePage(values url.Values) (int, int, error) {
	errs := validation.Errors{}
	number := func(name string) int {
		raw := values.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs[name] = errors.New("must be a non-negative integer")
		}
		return n
	}

	limit, offset := number("limit"), number("offset")
	return limit, offset, errs.Filter()
}
