package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
	"github.com/Clark-Hu/video-game-reviews/internal/repository"
	"github.com/Clark-Hu/video-game-reviews/internal/reviews"
)

const maxRequestBody = 1 << 20 // 1 MiB

// noRatingLabel is shown in place of an absent average rating.
const noRatingLabel = "no rating yet"

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type videoGameListResponse struct {
	Items      []videoGameSummaryResponse `json:"items"`
	Pagination paginationResponse         `json:"pagination"`
}

type paginationResponse struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	PageCount int   `json:"pageCount"`
	Total     int64 `json:"total"`
	From      int64 `json:"from"`
	To        int64 `json:"to"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type videoGameSummaryResponse struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	ReleaseDate   string        `json:"releaseDate"`
	Rating        int           `json:"rating"`
	ImageName     string        `json:"imageName"`
	AverageRating *int          `json:"averageRating"`
	Tags          []tagResponse `json:"tags"`
}

type videoGameDetailResponse struct {
	videoGameSummaryResponse
	Description        string              `json:"description"`
	Test               string              `json:"test"`
	ImageSize          int64               `json:"imageSize"`
	AverageRatingLabel string              `json:"averageRatingLabel"`
	RatingsPerValue    []ratingBarResponse `json:"ratingsPerValue"`
	Reviews            []reviewResponse    `json:"reviews"`
}

type ratingBarResponse struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

type reviewResponse struct {
	Username  string `json:"username"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleListVideoGames(w http.ResponseWriter, r *http.Request) {
	filters, err := buildVideoGameFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.VideoGames.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list video games error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list video games")
		return
	}

	s.respondJSON(w, http.StatusOK, toListResponse(result))
}

func buildVideoGameFilters(query url.Values) (repository.VideoGameListFilters, error) {
	filters := repository.VideoGameListFilters{
		Sorting:   repository.SortByReleaseDate,
		Direction: repository.Descending,
		Page:      1,
		Limit:     repository.DefaultLimit,
	}

	if val := strings.TrimSpace(query.Get("filter[search]")); val != "" {
		filters.Search = &val
	}
	for key, values := range query {
		if !strings.HasPrefix(key, "filter[tags][") || !strings.HasSuffix(key, "]") {
			continue
		}
		for _, raw := range values {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return filters, fmt.Errorf("invalid tag value")
			}
			filters.TagIDs = append(filters.TagIDs, id)
		}
	}
	if val := strings.TrimSpace(query.Get("page")); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil || page < 1 {
			return filters, fmt.Errorf("invalid page value")
		}
		filters.Page = page
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || !repository.IsAllowedLimit(limit) {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("sorting")); val != "" {
		switch sorting := repository.Sorting(val); sorting {
		case repository.SortByReleaseDate, repository.SortByTitle, repository.SortByAverageRating:
			filters.Sorting = sorting
		default:
			return filters, fmt.Errorf("invalid sorting value")
		}
	}
	if val := strings.TrimSpace(query.Get("direction")); val != "" {
		switch direction := repository.Direction(val); direction {
		case repository.Ascending, repository.Descending:
			filters.Direction = direction
		default:
			return filters, fmt.Errorf("invalid direction value")
		}
	}
	return filters, nil
}

func (s *Server) handleShowVideoGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.reviews.Show(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("show video game error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch video game")
		return
	}
	s.respondJSON(w, http.StatusOK, toDetailResponse(game))
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r.Header.Get("X-User-Id"))
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	game, err := s.reviews.Submit(r.Context(), reviews.SubmitParams{
		Slug:    chi.URLParam(r, "slug"),
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidReview):
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 1 and 5 and comment cannot be empty")
		case errors.Is(err, reviews.ErrUnknownUser):
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "You have already reviewed this video game")
		default:
			s.logger.Printf("submit review error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process review")
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/video-games/%s", url.PathEscape(game.Slug)))
	s.respondJSON(w, http.StatusCreated, toDetailResponse(game))
}

func parseUserID(header string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toListResponse(result repository.VideoGameListResult) videoGameListResponse {
	items := make([]videoGameSummaryResponse, 0, len(result.Items))
	for _, game := range result.Items {
		items = append(items, toSummaryResponse(game))
	}
	return videoGameListResponse{
		Items: items,
		Pagination: paginationResponse{
			Page:      result.Page,
			Limit:     result.Limit,
			PageCount: result.PageCount(),
			Total:     result.Total,
			From:      result.From(),
			To:        result.To(),
		},
	}
}

func toSummaryResponse(game domain.VideoGame) videoGameSummaryResponse {
	tags := make([]tagResponse, 0, len(game.Tags))
	for _, tag := range game.Tags {
		tags = append(tags, tagResponse{ID: tag.ID, Name: tag.Name})
	}
	return videoGameSummaryResponse{
		Slug:          game.Slug,
		Title:         game.Title,
		ReleaseDate:   game.ReleaseDate.Format("2006-01-02"),
		Rating:        game.Rating,
		ImageName:     game.ImageName,
		AverageRating: game.AverageRating,
		Tags:          tags,
	}
}

func toDetailResponse(game domain.VideoGame) videoGameDetailResponse {
	label := noRatingLabel
	if game.AverageRating != nil {
		label = strconv.Itoa(*game.AverageRating)
	}

	bars := make([]ratingBarResponse, 0, len(game.RatingsPerValue))
	game.RatingsPerValue.Each(func(value, count int) {
		bars = append(bars, ratingBarResponse{Value: value, Count: count})
	})

	reviewItems := make([]reviewResponse, 0, len(game.Reviews))
	for _, review := range game.Reviews {
		reviewItems = append(reviewItems, reviewResponse{
			Username:  review.Username,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return videoGameDetailResponse{
		videoGameSummaryResponse: toSummaryResponse(game),
		Description:              game.Description,
		Test:                     game.Test,
		ImageSize:                game.ImageSize,
		AverageRatingLabel:       label,
		RatingsPerValue:          bars,
		Reviews:                  reviewItems,
	}
}
