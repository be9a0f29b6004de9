package rating

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"musicapi/internal/httpx"
)

func TestHTTPHandler_CreateRating(t *testing.T) {
	tests := []struct {
		name           string
		albumID        string
		userID         string
		body           any
		setupMock      func(m *MockRepository)
		expectedStatus int
	}{
		{
			name:    "success",
			albumID: "302127",
			userID:  "test-user-id",
			body:    map[string]int{"star": 4},
			setupMock: func(m *MockRepository) {
				m.EXPECT().
					Upsert(gomock.Any(), Rating{UserID: "test-user-id", AlbumID: 302127, Star: 4}).
					Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:    "album not persisted",
			albumID: "1",
			userID:  "test-user-id",
			body:    map[string]int{"star": 5},
			setupMock: func(m *MockRepository) {
				m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unauthorized",
			albumID:        "302127",
			body:           map[string]int{"star": 4},
			setupMock:      func(m *MockRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "star below range",
			albumID:        "302127",
			userID:         "test-user-id",
			body:           map[string]int{"star": 0},
			setupMock:      func(m *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "star above range",
			albumID:        "302127",
			userID:         "test-user-id",
			body:           map[string]int{"star": 6},
			setupMock:      func(m *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid album id",
			albumID:        "abc",
			userID:         "test-user-id",
			body:           map[string]int{"star": 3},
			setupMock:      func(m *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			albumID:        "302127",
			userID:         "test-user-id",
			body:           "not json",
			setupMock:      func(m *MockRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "repository error",
			albumID: "302127",
			userID:  "test-user-id",
			body:    map[string]int{"star": 2},
			setupMock: func(m *MockRepository) {
				m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := NewMockRepository(ctrl)
			tt.setupMock(mockRepo)
			handler := NewHTTPHandler(NewService(mockRepo))

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			r := httptest.NewRequest(http.MethodPost, "/v1/albums/"+tt.albumID+"/rating", bytes.NewReader(body))
			r.SetPathValue("id", tt.albumID)
			if tt.userID != "" {
				r = r.WithContext(httpx.ContextWithUser(r.Context(), tt.userID))
			}
			w := httptest.NewRecorder()

			handler.CreateRating(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHTTPHandler_GetRating(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	mockRepo.EXPECT().GetAlbumSummary(gomock.Any(), int64(302127)).Return(Summary{Average: 4.5, Count: 2}, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/albums/302127/rating", nil)
	r.SetPathValue("id", "302127")
	w := httptest.NewRecorder()

	handler.GetRating(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"average_rating":4.5`)
	assert.Contains(t, w.Body.String(), `"ratings_count":2`)
}

func TestHTTPHandler_GetMyRating(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("found", func(t *testing.T) {
		mockRepo.EXPECT().GetUserRating(gomock.Any(), "u1", int64(302127)).Return(3, nil)

		r := httptest.NewRequest(http.MethodGet, "/v1/albums/302127/rating/me", nil)
		r.SetPathValue("id", "302127")
		r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1"))
		w := httptest.NewRecorder()

		handler.GetMyRating(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"star":3`)
	})

	t.Run("not rated", func(t *testing.T) {
		mockRepo.EXPECT().GetUserRating(gomock.Any(), "u1", int64(1)).Return(0, ErrNotFound)

		r := httptest.NewRequest(http.MethodGet, "/v1/albums/1/rating/me", nil)
		r.SetPathValue("id", "1")
		r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1"))
		w := httptest.NewRecorder()

		handler.GetMyRating(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestService_RateRejectsOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewService(NewMockRepository(ctrl))

	for _, star := range []int{-1, 0, 6} {
		err := svc.Rate(t.Context(), "u1", 302127, star)
		assert.ErrorIs(t, err, ErrInvalidStar)
	}
}
