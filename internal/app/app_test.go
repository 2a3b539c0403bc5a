package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	delivery "github.com/vadimbarashkov/link-shortener/internal/adapter/delivery/http"
	"github.com/vadimbarashkov/link-shortener/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/link-shortener/internal/config"
)

type AppTestSuite struct {
	suite.Suite
	cfg    *config.Config
	logger *httplog.Logger
	server *httptest.Server
	e      *httpexpect.Expect
}

func (suite *AppTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *AppTestSuite) SetupSubTest() {
	path := filepath.Join(suite.T().TempDir(), "config.yml")
	err := os.WriteFile(path, []byte("env: dev\nbase_url: https://sho.rt\nstorage: memory\n"), 0o600)
	require.NoError(suite.T(), err)

	suite.cfg, err = config.Load(path)
	require.NoError(suite.T(), err)

	store := memory.NewLinkRepository()
	suite.server = httptest.NewServer(newHandler(suite.cfg, suite.logger, store, store))
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *AppTestSuite) createLink(ownerID, originalURL string) string {
	return suite.e.POST("/api/v1/links").
		WithHeader(delivery.OwnerHeader, ownerID).
		WithJSON(map[string]any{"original_url": originalURL}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object().
		Value("short_code").String().Raw()
}

func (suite *AppTestSuite) TestCreateAndVisit() {
	suite.Run("redirect counts every visit", func() {
		shortCode := suite.createLink("alice", "https://example.com/a")

		for i := 0; i < 3; i++ {
			suite.e.GET("/{shortCode}", shortCode).
				Expect().
				Status(http.StatusFound).
				Header("Location").IsEqual("https://example.com/a")
		}

		suite.e.GET("/api/v1/links/{shortCode}", shortCode).
			WithHeader(delivery.OwnerHeader, "alice").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("click_count", 3).
			HasValue("short_url", "https://sho.rt/"+shortCode)
	})

	suite.Run("unknown code", func() {
		suite.e.GET("/{shortCode}", "zzzzzz").
			Expect().
			Status(http.StatusNotFound)
	})
}

func (suite *AppTestSuite) TestOwnerIsolation() {
	suite.Run("links are listed per owner", func() {
		first := suite.createLink("alice", "https://example.com/1")
		second := suite.createLink("alice", "https://example.com/2")
		other := suite.createLink("bob", "https://example.com/3")

		links := suite.e.GET("/api/v1/links").
			WithHeader(delivery.OwnerHeader, "alice").
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		links.Length().IsEqual(2)
		links.Value(0).Object().HasValue("short_code", first)
		links.Value(1).Object().HasValue("short_code", second)

		suite.e.GET("/api/v1/links/{shortCode}", other).
			WithHeader(delivery.OwnerHeader, "alice").
			Expect().
			Status(http.StatusNotFound)
	})
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}
