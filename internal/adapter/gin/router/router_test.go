package router

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-registry/internal/adapter/db/postgres"
	"user-registry/internal/adapter/gin/handler"
	"user-registry/internal/adapter/storage"
	"user-registry/internal/usecase/user"
)

const maxPhotoBytes = 5 * 1024 * 1024

var photoSrc = regexp.MustCompile(`src="/uploads/([^"]+)"`)

// RouterTestSuite drives the full stack: gin, use case, local storage and SQLite.
type RouterTestSuite struct {
	suite.Suite
	router     http.Handler
	db         *gorm.DB
	storageDir string
}

func (s *RouterTestSuite) SetupTest() {
	t := s.T()
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := postgres.NewUserRepoPG(db, log)
	require.NoError(t, repo.Migrate(context.Background()))

	s.storageDir = filepath.Join(t.TempDir(), "storage")
	photos := storage.NewLocalPhotoStore(s.storageDir, log)
	require.NoError(t, photos.EnsureDir())

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<form action=\"/users\"></form>"), 0o600))

	uc := user.New(repo, photos, maxPhotoBytes, log)
	s.db = db
	s.router = SetupRouter(handler.NewUserHandler(uc, log), Options{
		PublicDir:     publicDir,
		StorageDir:    s.storageDir,
		MaxPhotoBytes: maxPhotoBytes,
		DB:            sqlDB,
	}, log)
}

func (s *RouterTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) createUser(name, email string, photo []byte) *httptest.ResponseRecorder {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	s.Require().NoError(w.WriteField("name", name))
	s.Require().NoError(w.WriteField("email", email))
	if photo != nil {
		part, err := w.CreateFormFile("photo", "portrait.jpg")
		s.Require().NoError(err)
		_, err = part.Write(photo)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/users", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func (s *RouterTestSuite) listPage() string {
	w := s.do(httptest.NewRequest(http.MethodGet, "/users", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	return w.Body.String()
}

func (s *RouterTestSuite) countUsers() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&postgres.UserSchema{}).Count(&n).Error)
	return n
}

func (s *RouterTestSuite) TestCreateWithoutPhotoShowsPlaceholder() {
	w := s.createUser("Ayu", "ayu@example.com", nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/users", w.Header().Get("Location"))

	page := s.listPage()
	s.Contains(page, "Ayu")
	s.Contains(page, "ayu@example.com")
	s.Contains(page, "gravatar.com/avatar/00000000000000000000000000000000")
	s.NotRegexp(photoSrc, page)
}

func (s *RouterTestSuite) TestDuplicateEmailRejected() {
	s.Equal(http.StatusFound, s.createUser("First", "dup@example.com", nil).Code)

	w := s.createUser("Second", "dup@example.com", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Database error", w.Body.String())

	s.Equal(int64(1), s.countUsers())
	s.NotContains(s.listPage(), "Second")
}

func (s *RouterTestSuite) TestPhotoStoredByteIdentical() {
	photo := bytes.Repeat([]byte("\xff\xd8\xff\xe0JFIF"), 10000)

	s.Equal(http.StatusFound, s.createUser("Bayu", "bayu@example.com", photo).Code)

	match := photoSrc.FindStringSubmatch(s.listPage())
	s.Require().Len(match, 2)
	filename := match[1]
	s.Regexp(`^\d+-\d+\.jpg$`, filename)

	stored, err := os.ReadFile(filepath.Join(s.storageDir, filename))
	s.Require().NoError(err)
	s.Equal(photo, stored)

	// Served verbatim under /uploads
	w := s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+filename, nil))
	s.Equal(http.StatusOK, w.Code)
	s.Equal(photo, w.Body.Bytes())
}

func (s *RouterTestSuite) TestPhotoTooLargeRejected() {
	photo := make([]byte, maxPhotoBytes+1024)

	w := s.createUser("Cahya", "cahya@example.com", photo)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)

	s.Equal(int64(0), s.countUsers())
	entries, err := os.ReadDir(s.storageDir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *RouterTestSuite) TestPhotoFarOverLimitRejected() {
	photo := make([]byte, maxPhotoBytes+3*1024*1024)

	w := s.createUser("Dimas", "dimas@example.com", photo)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	s.Equal(int64(0), s.countUsers())
}

func (s *RouterTestSuite) TestListNewestFirst() {
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		s.Require().Equal(http.StatusFound, s.createUser(name, strings.ToLower(name)+"@example.com", nil).Code)
	}

	page := s.listPage()
	a := strings.Index(page, "Alpha")
	b := strings.Index(page, "Bravo")
	c := strings.Index(page, "Charlie")
	s.True(c < b && b < a, "expected Charlie, Bravo, Alpha")
}

func (s *RouterTestSuite) TestConcurrentCreates() {
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.createUser(fmt.Sprintf("Parallel%d", i), fmt.Sprintf("p%d@example.com", i), nil).Code
		}(i)
	}
	wg.Wait()

	s.Equal([]int{http.StatusFound, http.StatusFound}, codes)
	page := s.listPage()
	s.Contains(page, "Parallel0")
	s.Contains(page, "Parallel1")
}

func (s *RouterTestSuite) TestEmptyNameAccepted() {
	w := s.createUser("", "empty@example.com", nil)
	s.Equal(http.StatusFound, w.Code)

	s.Equal(int64(1), s.countUsers())
	s.Contains(s.listPage(), "empty@example.com")
}

func (s *RouterTestSuite) TestAbsentFieldRejectedByDatabase() {
	form := url.Values{"email": {"noname@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := s.do(req)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Database error", w.Body.String())
	s.Equal(int64(0), s.countUsers())
}

func (s *RouterTestSuite) TestIndexPage() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `action="/users"`)
}

func (s *RouterTestSuite) TestHealth() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
}

func (s *RouterTestSuite) TestUnknownRoute() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	s.Equal(http.StatusNotFound, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
