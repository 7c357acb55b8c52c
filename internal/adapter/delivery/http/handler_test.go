package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

const testAPIToken = "secret-token"

type mockBookmarkUseCase struct {
	mock.Mock
}

func (m *mockBookmarkUseCase) ListBookmarks(ctx context.Context) ([]entity.Bookmark, error) {
	args := m.Called(ctx)
	bookmarks, _ := args.Get(0).([]entity.Bookmark)
	return bookmarks, args.Error(1)
}

func (m *mockBookmarkUseCase) GetBookmark(ctx context.Context, id uuid.UUID) (*entity.Bookmark, error) {
	args := m.Called(ctx, id)
	bookmark, _ := args.Get(0).(*entity.Bookmark)
	return bookmark, args.Error(1)
}

func (m *mockBookmarkUseCase) CreateBookmark(ctx context.Context, draft entity.BookmarkDraft) (*entity.Bookmark, error) {
	args := m.Called(ctx, draft)
	bookmark, _ := args.Get(0).(*entity.Bookmark)
	return bookmark, args.Error(1)
}

func (m *mockBookmarkUseCase) ModifyBookmark(ctx context.Context, id uuid.UUID, patch entity.BookmarkPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *mockBookmarkUseCase) RemoveBookmark(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type HandlersTestSuite struct {
	suite.Suite
	logger              *httplog.Logger
	id                  uuid.UUID
	bookmark            *entity.Bookmark
	bookmarkUseCaseMock *mockBookmarkUseCase
	server              *httptest.Server
	e                   *httpexpect.Expect
	anon                *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.id = uuid.MustParse("4f0f4a2e-3a52-4b0e-8f8e-2a6c4a1f5b11")
	suite.bookmark = &entity.Bookmark{
		ID:     suite.id,
		Title:  "Thinkful",
		URL:    "http://www.thinkful.com",
		Desc:   "Learning platform",
		Rating: 5,
	}
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.bookmarkUseCaseMock = new(mockBookmarkUseCase)

	router := NewRouter(suite.logger, suite.bookmarkUseCaseMock, Options{APIToken: testAPIToken})
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.anon = httpexpect.Default(suite.T(), suite.server.URL)
	suite.e = suite.anon.Builder(func(req *httpexpect.Request) {
		req.WithHeader("Authorization", "Bearer "+testAPIToken)
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.bookmarkUseCaseMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestGreeting() {
	suite.Run("success without token", func() {
		suite.anon.GET("/").
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("Hello, world!")
	})
}

func (suite *HandlersTestSuite) TestUnauthorized() {
	bookmarkPath := fmt.Sprintf("/bookmarks/%s", suite.id)

	requests := []struct {
		name    string
		request func(e *httpexpect.Expect) *httpexpect.Request
	}{
		{"list", func(e *httpexpect.Expect) *httpexpect.Request { return e.GET("/bookmarks") }},
		{"create", func(e *httpexpect.Expect) *httpexpect.Request {
			return e.POST("/bookmarks").WithJSON(map[string]any{"title": ""})
		}},
		{"get", func(e *httpexpect.Expect) *httpexpect.Request { return e.GET(bookmarkPath) }},
		{"modify", func(e *httpexpect.Expect) *httpexpect.Request {
			return e.PATCH(bookmarkPath).WithJSON(map[string]any{"rating": 10})
		}},
		{"remove", func(e *httpexpect.Expect) *httpexpect.Request { return e.DELETE(bookmarkPath) }},
	}

	for _, tt := range requests {
		suite.Run(tt.name+" without header", func() {
			resp := tt.request(suite.anon).
				Expect().
				Status(http.StatusUnauthorized).
				JSON().Object()

			resp.Value("error").Object().HasValue("message", "Unauthorized request")
		})

		suite.Run(tt.name+" with wrong token", func() {
			tt.request(suite.anon).
				WithHeader("Authorization", "Bearer wrong-token").
				Expect().
				Status(http.StatusUnauthorized)
		})

		suite.Run(tt.name+" with wrong scheme", func() {
			tt.request(suite.anon).
				WithHeader("Authorization", "Basic "+testAPIToken).
				Expect().
				Status(http.StatusUnauthorized)
		})
	}
}

func (suite *HandlersTestSuite) TestListBookmarks() {
	const path = "/bookmarks"

	suite.Run("server error", func() {
		suite.bookmarkUseCaseMock.
			On("ListBookmarks", mock.Anything).
			Once().
			Return(nil, errors.New("connection refused"))

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "server error")
	})

	suite.Run("no bookmarks", func() {
		suite.bookmarkUseCaseMock.
			On("ListBookmarks", mock.Anything).
			Once().
			Return([]entity.Bookmark{}, nil)

		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("success", func() {
		other := entity.Bookmark{
			ID:     uuid.MustParse("9b2d1c3e-0f4a-4d5b-a6c7-8e9f0a1b2c3d"),
			Title:  "Go",
			URL:    "https://go.dev",
			Rating: 4,
		}

		suite.bookmarkUseCaseMock.
			On("ListBookmarks", mock.Anything).
			Once().
			Return([]entity.Bookmark{*suite.bookmark, other}, nil)

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		resp.Length().IsEqual(2)
		resp.Value(0).Object().
			HasValue("id", suite.id.String()).
			HasValue("title", "Thinkful").
			HasValue("url", "http://www.thinkful.com").
			HasValue("desc", "Learning platform").
			HasValue("rating", 5)
		resp.Value(1).Object().
			HasValue("title", "Go").
			HasValue("desc", "")
	})
}

func (suite *HandlersTestSuite) TestCreateBookmark() {
	const path = "/bookmarks"

	validBody := map[string]any{
		"title":  "Thinkful",
		"url":    "http://www.thinkful.com",
		"desc":   "Learning platform",
		"rating": 5,
	}

	withField := func(key string, value any) map[string]any {
		body := make(map[string]any, len(validBody))
		for k, v := range validBody {
			body[k] = v
		}
		if value == nil {
			delete(body, key)
		} else {
			body[key] = value
		}
		return body
	}

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("error").Object().ContainsKey("message")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "Invalid request body")
	})

	for _, field := range []string{"title", "url", "rating"} {
		suite.Run("missing "+field, func() {
			resp := suite.e.POST(path).
				WithJSON(withField(field, nil)).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object()

			resp.Value("error").Object().HasValue("message", fmt.Sprintf("'%s' is required", field))
		})
	}

	validationCases := []struct {
		name    string
		body    map[string]any
		field   string
		message string
	}{
		{"empty title", withField("title", ""), "title", "'title' must not be empty"},
		{"invalid url", withField("url", "invalid url"), "url", "'url' must be a valid URL"},
		{"url without scheme", withField("url", "www.thinkful.com"), "url", "'url' must be a valid URL"},
		{"non web url", withField("url", "ftp://files.example.com"), "url", "'url' must be a valid URL"},
		{"rating above range", withField("rating", 6), "rating", "'rating' must be a number between 0 and 5"},
		{"rating below range", withField("rating", -1), "rating", "'rating' must be a number between 0 and 5"},
		{"fractional rating", withField("rating", 4.5), "rating", "'rating' must be a number between 0 and 5"},
	}

	for _, tt := range validationCases {
		suite.Run(tt.name, func() {
			resp := suite.e.POST(path).
				WithJSON(tt.body).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object()

			errObj := resp.Value("error").Object()
			errObj.HasValue("message", tt.message)
			errObj.Value("fields").Array().Value(0).Object().
				HasValue("field", tt.field).
				HasValue("message", tt.message)
		})
	}

	suite.Run("non numeric rating", func() {
		suite.e.POST(path).
			WithJSON(withField("rating", "five")).
			Expect().
			Status(http.StatusBadRequest)
	})

	suite.Run("server error", func() {
		suite.bookmarkUseCaseMock.
			On("CreateBookmark", mock.Anything, mock.Anything).
			Once().
			Return(nil, errors.New("connection refused"))

		resp := suite.e.POST(path).
			WithJSON(validBody).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "server error")
	})

	suite.Run("success", func() {
		suite.bookmarkUseCaseMock.
			On("CreateBookmark", mock.Anything, entity.BookmarkDraft{
				Title:  "Thinkful",
				URL:    "http://www.thinkful.com",
				Desc:   "Learning platform",
				Rating: 5,
			}).
			Once().
			Return(suite.bookmark, nil)

		resp := suite.e.POST(path).
			WithJSON(validBody).
			Expect().
			Status(http.StatusCreated)

		resp.Header("Location").IsEqual("/bookmarks/" + suite.id.String())
		resp.JSON().Object().
			HasValue("id", suite.id.String()).
			HasValue("title", "Thinkful").
			HasValue("url", "http://www.thinkful.com").
			HasValue("desc", "Learning platform").
			HasValue("rating", 5)
	})

	suite.Run("success without desc and zero rating", func() {
		suite.bookmarkUseCaseMock.
			On("CreateBookmark", mock.Anything, entity.BookmarkDraft{
				Title:  "Thinkful",
				URL:    "http://www.thinkful.com",
				Rating: 0,
			}).
			Once().
			Return(&entity.Bookmark{ID: suite.id, Title: "Thinkful", URL: "http://www.thinkful.com"}, nil)

		suite.e.POST(path).
			WithJSON(map[string]any{"title": "Thinkful", "url": "http://www.thinkful.com", "rating": 0}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object().
			HasValue("rating", 0).
			HasValue("desc", "")
	})

	suite.Run("sanitized response", func() {
		suite.bookmarkUseCaseMock.
			On("CreateBookmark", mock.Anything, mock.Anything).
			Once().
			Return(&entity.Bookmark{
				ID:     suite.id,
				Title:  `<script>alert("xss")</script>Thinkful`,
				URL:    "http://www.thinkful.com",
				Desc:   `Hello <b>World</b>`,
				Rating: 5,
			}, nil)

		obj := suite.e.POST(path).
			WithJSON(validBody).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		obj.Value("title").String().NotContains("<").NotContains(">")
		obj.HasValue("desc", "Hello World")
	})
}

func (suite *HandlersTestSuite) TestGetBookmark() {
	path := fmt.Sprintf("/bookmarks/%s", suite.id)

	suite.Run("malformed id", func() {
		resp := suite.e.GET("/bookmarks/123").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "Bookmark Not Found")
	})

	suite.Run("bookmark not found", func() {
		suite.bookmarkUseCaseMock.
			On("GetBookmark", mock.Anything, suite.id).
			Once().
			Return(nil, entity.ErrBookmarkNotFound)

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "Bookmark Not Found")
	})

	suite.Run("server error", func() {
		suite.bookmarkUseCaseMock.
			On("GetBookmark", mock.Anything, suite.id).
			Once().
			Return(nil, errors.New("connection refused"))

		suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.bookmarkUseCaseMock.
			On("GetBookmark", mock.Anything, suite.id).
			Once().
			Return(suite.bookmark, nil)

		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("id", suite.id.String()).
			HasValue("title", "Thinkful").
			HasValue("rating", 5)
	})
}

func (suite *HandlersTestSuite) TestModifyBookmark() {
	path := fmt.Sprintf("/bookmarks/%s", suite.id)
	title := "Go"

	suite.Run("empty request body", func() {
		suite.e.PATCH(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			ContainsKey("error")
	})

	suite.Run("no recognized fields", func() {
		resp := suite.e.PATCH(path).
			WithJSON(map[string]any{"description": "Learning platform"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", emptyPatchMessage)
	})

	validationCases := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"empty title", map[string]any{"title": ""}, "'title' must not be empty"},
		{"invalid url", map[string]any{"url": "invalid url"}, "'url' must be a valid URL"},
		{"rating above range", map[string]any{"rating": 6}, "'rating' must be a number between 0 and 5"},
		{"fractional rating", map[string]any{"title": "Go", "rating": 2.5}, "'rating' must be a number between 0 and 5"},
	}

	for _, tt := range validationCases {
		suite.Run(tt.name, func() {
			resp := suite.e.PATCH(path).
				WithJSON(tt.body).
				Expect().
				Status(http.StatusBadRequest).
				JSON().Object()

			resp.Value("error").Object().HasValue("message", tt.message)
		})
	}

	suite.Run("malformed id", func() {
		suite.e.PATCH("/bookmarks/123").
			WithJSON(map[string]any{"title": title}).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("bookmark not found", func() {
		suite.bookmarkUseCaseMock.
			On("ModifyBookmark", mock.Anything, suite.id, entity.BookmarkPatch{Title: &title}).
			Once().
			Return(entity.ErrBookmarkNotFound)

		resp := suite.e.PATCH(path).
			WithJSON(map[string]any{"title": title}).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "Bookmark Not Found")
	})

	suite.Run("server error", func() {
		suite.bookmarkUseCaseMock.
			On("ModifyBookmark", mock.Anything, suite.id, entity.BookmarkPatch{Title: &title}).
			Once().
			Return(errors.New("connection refused"))

		suite.e.PATCH(path).
			WithJSON(map[string]any{"title": title}).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		rating := 0

		suite.bookmarkUseCaseMock.
			On("ModifyBookmark", mock.Anything, suite.id, entity.BookmarkPatch{Title: &title, Rating: &rating}).
			Once().
			Return(nil)

		suite.e.PATCH(path).
			WithJSON(map[string]any{"title": title, "rating": 0}).
			Expect().
			Status(http.StatusNoContent).
			NoContent()
	})
}

func (suite *HandlersTestSuite) TestRemoveBookmark() {
	path := fmt.Sprintf("/bookmarks/%s", suite.id)

	suite.Run("malformed id", func() {
		suite.e.DELETE("/bookmarks/123").
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("bookmark not found", func() {
		suite.bookmarkUseCaseMock.
			On("RemoveBookmark", mock.Anything, suite.id).
			Once().
			Return(entity.ErrBookmarkNotFound)

		resp := suite.e.DELETE(path).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.Value("error").Object().HasValue("message", "Bookmark Not Found")
	})

	suite.Run("server error", func() {
		suite.bookmarkUseCaseMock.
			On("RemoveBookmark", mock.Anything, suite.id).
			Once().
			Return(errors.New("connection refused"))

		suite.e.DELETE(path).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.bookmarkUseCaseMock.
			On("RemoveBookmark", mock.Anything, suite.id).
			Once().
			Return(nil)

		suite.e.DELETE(path).
			Expect().
			Status(http.StatusNoContent).
			NoContent()
	})
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestNewRouter_Options(t *testing.T) {
	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})

	t.Run("protected root", func(t *testing.T) {
		router := NewRouter(logger, new(mockBookmarkUseCase), Options{APIToken: testAPIToken, ProtectRoot: true})
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)

		e := httpexpect.Default(t, server.URL)

		e.GET("/").Expect().Status(http.StatusUnauthorized)
		e.GET("/").
			WithHeader("Authorization", "Bearer "+testAPIToken).
			Expect().
			Status(http.StatusOK)
	})

	t.Run("exposed errors", func(t *testing.T) {
		useCase := new(mockBookmarkUseCase)
		useCase.On("ListBookmarks", mock.Anything).Once().Return(nil, errors.New("connection refused"))

		router := NewRouter(logger, useCase, Options{APIToken: testAPIToken, ExposeErrors: true})
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)

		httpexpect.Default(t, server.URL).
			GET("/bookmarks").
			WithHeader("Authorization", "Bearer "+testAPIToken).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			Value("error").Object().
			HasValue("message", "connection refused")

		useCase.AssertExpectations(t)
	})

	t.Run("empty token rejects everything", func(t *testing.T) {
		router := NewRouter(logger, new(mockBookmarkUseCase), Options{})
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)

		httpexpect.Default(t, server.URL).
			GET("/bookmarks").
			WithHeader("Authorization", "Bearer ").
			Expect().
			Status(http.StatusUnauthorized)
	})

	t.Run("rate limited", func(t *testing.T) {
		useCase := new(mockBookmarkUseCase)
		useCase.On("ListBookmarks", mock.Anything).Return([]entity.Bookmark{}, nil)

		router := NewRouter(logger, useCase, Options{
			APIToken:          testAPIToken,
			RateLimitRequests: 1,
			RateLimitWindow:   time.Minute,
		})
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)

		e := httpexpect.Default(t, server.URL)

		e.GET("/bookmarks").WithHeader("Authorization", "Bearer "+testAPIToken).
			Expect().Status(http.StatusOK)
		e.GET("/bookmarks").WithHeader("Authorization", "Bearer "+testAPIToken).
			Expect().Status(http.StatusTooManyRequests)
	})

	t.Run("security headers and metrics", func(t *testing.T) {
		router := NewRouter(logger, new(mockBookmarkUseCase), Options{APIToken: testAPIToken})
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)

		e := httpexpect.Default(t, server.URL)

		resp := e.GET("/").Expect().Status(http.StatusOK)
		resp.Header("X-Frame-Options").IsEqual("DENY")
		resp.Header("X-Content-Type-Options").IsEqual("nosniff")

		e.GET("/metrics").Expect().Status(http.StatusOK)
		e.GET("/docs/swagger.yml").Expect().Status(http.StatusOK).
			Body().Contains("Bookmarks API")
	})
}
