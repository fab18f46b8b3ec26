package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"devcentral/internal/cache"
	"devcentral/internal/config"
	"devcentral/internal/models"
	"devcentral/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		JWTSecret:            "test-secret-that-is-at-least-32-characters",
		Env:                  "test",
		MediaDir:             t.TempDir(),
		MediaURLPrefix:       "/media",
		ImageMaxUploadSizeMB: 1,
		SessionTTLHours:      1,
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	return &testEnv{t: t, app: s.NewApp(), db: db}
}

func (e *testEnv) do(req *http.Request) *http.Response {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) post(path string, form url.Values, session string) *http.Response {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session})
	}
	return e.do(req)
}

func (e *testEnv) get(path, session string) *http.Response {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session})
	}
	return e.do(req)
}

func (e *testEnv) getJSON(path, session string, dst any) {
	e.t.Helper()
	resp := e.get(path, session)
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	require.Equal(e.t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(e.t, json.Unmarshal(body, dst))
}

func sessionFrom(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// signup registers username with a fixed password and returns the session.
func (e *testEnv) signup(username string) string {
	e.t.Helper()
	resp := e.post("/signup/", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {"correct-horse-battery"},
		"password2": {"correct-horse-battery"},
	}, "")
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	token := sessionFrom(resp)
	require.NotEmpty(e.t, token)
	return token
}

func (e *testEnv) createPost(session, body string) uint {
	e.t.Helper()
	resp := e.post("/post/create/", url.Values{"body": {body}}, session)
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)

	var post models.Post
	require.NoError(e.t, e.db.Where("body = ?", body).Order("id DESC").First(&post).Error)
	return post.ID
}

type feedBody struct {
	Posts []struct {
		ID           uint    `json:"id"`
		Body         string  `json:"body"`
		LikesCount   int     `json:"likes_count"`
		SharesCount  int     `json:"shares_count"`
		Liked        bool    `json:"liked"`
		RenderedHTML *string `json:"rendered_html"`
		Replies      []struct {
			Body string `json:"body"`
		} `json:"replies"`
	} `json:"posts"`
	Messages []string `json:"messages"`
}

func TestAuthRequired_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/explore/?page=2", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/accounts/login/?next="+url.QueryEscape("/explore/?page=2"), resp.Header.Get("Location"))

	resp = env.post("/post/create/", url.Values{"body": {"hi"}}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.get("/", "not-a-token")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signup("alice")

	resp := env.post("/signup/", url.Values{
		"username":  {"alice"},
		"email":     {"other@example.com"},
		"password1": {"correct-horse-battery"},
		"password2": {"correct-horse-battery"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post("/accounts/login/?next=/explore/", url.Values{
		"username": {"alice"},
		"password": {"wrong-password"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.post("/accounts/login/?next=/explore/", url.Values{
		"username": {"alice"},
		"password": {"correct-horse-battery"},
	}, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/explore/", resp.Header.Get("Location"))
	assert.NotEmpty(t, sessionFrom(resp))
}

func TestTimeline_FollowVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	carol := env.signup("carol")

	env.createPost(alice, "from alice")
	env.createPost(bob, "from bob")
	env.createPost(carol, "from carol")

	resp := env.post("/u/bob/follow/", nil, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/u/bob/", resp.Header.Get("Location"))

	var feed feedBody
	env.getJSON("/", alice, &feed)
	var bodies []string
	for _, p := range feed.Posts {
		bodies = append(bodies, p.Body)
	}
	assert.Equal(t, []string{"from bob", "from alice"}, bodies)
	assert.NotNil(t, feed.Messages)

	var profile struct {
		Profile models.ProfileView `json:"profile"`
	}
	env.getJSON("/u/bob/", alice, &profile)
	assert.Equal(t, int64(1), profile.Profile.FollowersCount)
	assert.True(t, profile.Profile.IsFollowing)
	assert.False(t, profile.Profile.IsOwner)

	resp = env.post("/u/bob/unfollow/", nil, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	env.getJSON("/", alice, &feed)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "from alice", feed.Posts[0].Body)
}

func TestPublicPagesHideEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	postID := env.createPost(bob, "hello from bob")

	resp := env.post("/post/"+itoa(postID)+"/reply/", url.Values{"body": {"hi bob"}}, alice)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	for _, path := range []string{"/explore/", "/users/", "/u/bob/"} {
		resp := env.get(path, alice)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), `"bob"`, path)
		assert.NotContains(t, string(body), "bob@example.com", path)
		assert.NotContains(t, string(body), "alice@example.com", path)
	}
}

func TestFollow_SelfIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")

	resp := env.post("/u/alice/follow/", nil, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var edges int64
	require.NoError(t, env.db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Zero(t, edges)

	var flashCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == flashCookieName {
			flashCookie = ck
		}
	}
	require.NotNil(t, flashCookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: alice})
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: flashCookie.Value})
	var feed feedBody
	require.NoError(t, json.NewDecoder(env.do(req).Body).Decode(&feed))
	assert.Equal(t, []string{"You cannot follow yourself."}, feed.Messages)

	resp = env.post("/u/nobody/follow/", nil, alice)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdatePost_OnlyAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	id := env.createPost(alice, "original")
	path := "/post/" + itoa(id)

	resp := env.post(path+"/edit/", url.Values{"body": {"hijacked"}}, bob)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.post(path+"/delete/", nil, bob)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	assert.Equal(t, "original", post.Body)

	resp = env.post(path+"/edit/", url.Values{"body": {"edited"}}, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, env.db.First(&post, id).Error)
	assert.Equal(t, "edited", post.Body)
}

func TestPostActions(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	id := env.createPost(alice, "**bold** claim")
	path := "/post/" + itoa(id)

	counters := func() models.Post {
		var p models.Post
		require.NoError(t, env.db.First(&p, id).Error)
		return p
	}

	resp := env.post(path+"/like/", nil, bob)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, counters().LikesCount)

	resp = env.post(path+"/like/", nil, bob)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, counters().LikesCount)

	resp = env.post(path+"/celebrate/", nil, bob)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	env.post(path+"/share/", nil, bob)
	env.post(path+"/share/", nil, bob)
	assert.Equal(t, 2, counters().SharesCount)

	resp = env.post("/post/999/like/", nil, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var feed feedBody
	env.getJSON("/", alice, &feed)
	require.Len(t, feed.Posts, 1)
	require.NotNil(t, feed.Posts[0].RenderedHTML)
	assert.Contains(t, *feed.Posts[0].RenderedHTML, "<strong>bold</strong>")
}

func TestReplyRouteIsNotAnAction(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	id := env.createPost(alice, "question")

	resp := env.post("/post/"+itoa(id)+"/reply/", url.Values{"body": {"  an answer  "}}, bob)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var feed feedBody
	env.getJSON("/", alice, &feed)
	require.Len(t, feed.Posts, 1)
	require.Len(t, feed.Posts[0].Replies, 1)
	assert.Equal(t, "an answer", feed.Posts[0].Replies[0].Body)
	assert.Zero(t, feed.Posts[0].LikesCount)

	resp = env.post("/post/"+itoa(id)+"/reply/", url.Values{"body": {"   "}}, bob)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostOnlyRoutesRejectGet(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")

	resp := env.get("/post/1/delete/", alice)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestExplore_Pagination(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")

	var author models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&author).Error)
	posts := make([]models.Post, 30)
	for i := range posts {
		posts[i] = models.Post{AuthorID: author.ID, Body: "post " + itoa(uint(i+1))}
	}
	require.NoError(t, env.db.Create(&posts).Error)

	var page struct {
		Posts      []json.RawMessage `json:"posts"`
		Page       int               `json:"page"`
		TotalPages int               `json:"total_pages"`
		HasNext    bool              `json:"has_next"`
		Messages   []string          `json:"messages"`
	}

	env.getJSON("/explore/", alice, &page)
	assert.Len(t, page.Posts, 25)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.NotNil(t, page.Messages)

	env.getJSON("/explore/?page=99", alice, &page)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Posts, 5)

	env.getJSON("/explore/?page=abc", alice, &page)
	assert.Equal(t, 1, page.Page)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup("alice")
	bob := env.signup("bob")
	id := env.createPost(bob, "bob's post")
	env.post("/post/"+itoa(id)+"/like/", nil, alice)

	resp := env.post("/account/delete/", url.Values{"password": {"nope"}}, alice)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Contains(t, errBody.Fields, "password")
	assert.Equal(t, http.StatusOK, env.get("/", alice).StatusCode)

	resp = env.post("/account/delete/", url.Values{"password": {"correct-horse-battery"}}, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, loginPath, resp.Header.Get("Location"))

	assert.Equal(t, http.StatusFound, env.get("/", alice).StatusCode)

	var users int64
	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", "alice").Count(&users).Error)
	assert.Zero(t, users)

	var post models.Post
	require.NoError(t, env.db.First(&post, id).Error)
	assert.Zero(t, post.LikesCount)
}

func TestLogout_RevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	env := newTestEnv(t)
	alice := env.signup("alice")

	resp := env.post("/accounts/logout/", nil, alice)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, loginPath, resp.Header.Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/post/create/", strings.NewReader("body=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+alice)
	assert.Equal(t, http.StatusUnauthorized, env.do(req).StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.get("/health/live", "").StatusCode)

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	env.getJSON("/health/ready", "", &ready)
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, "disabled", ready.Checks["redis"])
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
