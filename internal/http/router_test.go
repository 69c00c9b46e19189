package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"polltree/internal/domain/followup"
	"polltree/internal/domain/question"
	"polltree/internal/domain/user"
	jwtpkg "polltree/internal/platform/jwt"
	"polltree/internal/repository/gormrepo"
	"polltree/internal/testutil"
	"polltree/internal/worker"
)

type testEnv struct {
	server *httptest.Server
	client *http.Client
	users  *gormrepo.UserRepo
	events chan worker.Event
}

func setupServer(t *testing.T, votesPerMinute, burst int) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	users := gormrepo.NewUserRepo(db)
	events := make(chan worker.Event, 100)

	router := NewRouter(Deps{
		Users:          user.NewService(users),
		Questions:      question.NewService(gormrepo.NewQuestionRepo(db)),
		FollowUps:      followup.NewService(gormrepo.NewFollowUpRepo(db)),
		JWT:            jwtpkg.NewManager("secret", "test-issuer", 0),
		Events:         events,
		DB:             db,
		VotesPerMinute: votesPerMinute,
		VoteBurst:      burst,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		server: server,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
		users:  users,
		events: events,
	}
}

func (e *testEnv) seedUser(t *testing.T, email, role, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &user.User{Email: email, PasswordHash: string(hash), Role: role, IsActive: true}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "", authRequest{Email: email, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	var payload authResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("token missing")
	}
	return payload.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, e.server.URL+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (e *testEnv) createQuestion(t *testing.T, token, text string, choices ...string) question.Detail {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/questions", token, createQuestionRequest{QuestionText: text, Choices: choices})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating question, got %d", resp.StatusCode)
	}
	var d question.Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	return d
}

func (e *testEnv) createFollowUp(t *testing.T, token, path, content string, choices ...string) followup.Detail {
	t.Helper()
	resp := e.do(t, http.MethodPost, path, token, followUpRequest{Content: content, Choices: choices})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on %s, got %d", path, resp.StatusCode)
	}
	var d followup.Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode follow-up: %v", err)
	}
	return d
}

func (e *testEnv) getQuestion(t *testing.T, id int64) question.Detail {
	t.Helper()
	resp := e.do(t, http.MethodGet, "/api/v1/questions/"+itoa(id), "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reading question, got %d", resp.StatusCode)
	}
	var d question.Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	return d
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload
}

func TestRegisterLoginAndCreate(t *testing.T) {
	env := setupServer(t, 0, 0)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", authRequest{Email: "New@Test.com", Password: "pass123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d", resp.StatusCode)
	}
	dup := env.do(t, http.MethodPost, "/api/v1/auth/register", "", authRequest{Email: "new@test.com", Password: "pass123"})
	dup.Body.Close()
	if dup.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", dup.StatusCode)
	}

	token := env.login(t, "new@test.com", "pass123")
	d := env.createQuestion(t, token, "Best editor?", "vim", "emacs")
	if len(d.Choices) != 2 || d.Choices[0].Votes != 0 {
		t.Fatalf("unexpected choices: %+v", d.Choices)
	}

	list := env.do(t, http.MethodGet, "/api/v1/questions", "", nil)
	defer list.Body.Close()
	var qs []question.Question
	if err := json.NewDecoder(list.Body).Decode(&qs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != d.ID {
		t.Fatalf("unexpected listing: %+v", qs)
	}
}

func TestWritesRequireToken(t *testing.T) {
	env := setupServer(t, 0, 0)

	resp := env.do(t, http.MethodPost, "/api/v1/questions", "", createQuestionRequest{QuestionText: "x"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	bad := env.do(t, http.MethodPost, "/api/v1/questions/1/vote", "not-a-token", voteRequest{ChoiceID: 1})
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", bad.StatusCode)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")

	resp := env.do(t, http.MethodPost, "/api/v1/questions", token, createQuestionRequest{
		QuestionText: strings.Repeat("q", 201),
		Choices:      []string{""},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	payload := decodeError(t, resp)
	fields, _ := payload["fields"].(map[string]any)
	if fields["question_text"] == nil || fields["choices"] == nil {
		t.Fatalf("expected field errors, got %v", payload)
	}
}

func TestVoteRedirectsToResultsThenFollowUp(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, token, "Coffee or tea?", "coffee", "tea")
	votePath := "/api/v1/questions/" + itoa(d.ID) + "/vote"

	resp := env.do(t, http.MethodPost, votePath, token, voteRequest{ChoiceID: d.Choices[0].ID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/questions/"+itoa(d.ID)+"/results" {
		t.Fatalf("unexpected location %q", loc)
	}

	first := env.createFollowUp(t, token, "/api/v1/questions/"+itoa(d.ID)+"/branches", "Why?", "taste")
	env.createFollowUp(t, token, "/api/v1/questions/"+itoa(d.ID)+"/branches", "How often?")

	resp = env.do(t, http.MethodPost, votePath, token, voteRequest{ChoiceID: d.Choices[0].ID})
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "/api/v1/followups/"+itoa(first.ID) {
		t.Fatalf("expected redirect to first follow-up, got %q", loc)
	}

	res := env.do(t, http.MethodGet, "/api/v1/questions/"+itoa(d.ID)+"/results", "", nil)
	defer res.Body.Close()
	var results question.Results
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if results.TotalVotes != 2 || results.Choices[0].Votes != 2 || results.Choices[0].Percentage != 100 {
		t.Fatalf("unexpected results: %+v", results)
	}

	if len(env.events) < 2 {
		t.Fatalf("expected vote and branch events, got %d", len(env.events))
	}
}

func TestVoteWithoutChoiceRendersQuestion(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, token, "Pick one", "a", "b")

	resp := env.do(t, http.MethodPost, "/api/v1/questions/"+itoa(d.ID)+"/vote", token, map[string]any{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var payload noChoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Message != "You didn't select a choice." || payload.Question == nil || payload.Question.ID != d.ID {
		t.Fatalf("unexpected payload %+v", payload)
	}

	after := env.getQuestion(t, d.ID)
	for _, c := range after.Choices {
		if c.Votes != 0 {
			t.Fatalf("votes changed: %+v", after.Choices)
		}
	}
}

func TestVoteFormSubmission(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, token, "Form vote", "a")

	form := url.Values{"choice": {itoa(d.Choices[0].ID)}}
	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/questions/"+itoa(d.ID)+"/vote", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
}

func TestVoteForeignChoiceIsNotFound(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	a := env.createQuestion(t, token, "A", "a1")
	b := env.createQuestion(t, token, "B", "b1")

	resp := env.do(t, http.MethodPost, "/api/v1/questions/"+itoa(a.ID)+"/vote", token, voteRequest{ChoiceID: b.Choices[0].ID})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if after := env.getQuestion(t, b.ID); after.Choices[0].Votes != 0 {
		t.Fatalf("foreign choice was counted")
	}
}

func TestVoteRateLimit(t *testing.T) {
	env := setupServer(t, 1, 2)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, token, "Spam?", "yes")

	var last int
	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/v1/questions/"+itoa(d.ID)+"/vote", token, voteRequest{ChoiceID: d.Choices[0].ID})
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

func TestTreeCountersOverHTTP(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	token := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, token, "Root", "left", "right")

	env.createFollowUp(t, token, "/api/v1/questions/"+itoa(d.ID)+"/branches", "branch")
	path := env.createFollowUp(t, token, "/api/v1/choices/"+itoa(d.Choices[1].ID)+"/paths", "why right?", "because")
	reply := env.createFollowUp(t, token, "/api/v1/followups/"+itoa(path.ID)+"/replies", "really?")

	root := env.getQuestion(t, d.ID)
	if root.Branches != 1 || root.PathCount != 1 {
		t.Fatalf("expected branches=1 path_count=1, got %d/%d", root.Branches, root.PathCount)
	}
	if len(root.FollowUps) != 1 {
		t.Fatalf("expected one direct follow-up, got %d", len(root.FollowUps))
	}

	resp := env.do(t, http.MethodGet, "/api/v1/followups/"+itoa(path.ID), "", nil)
	defer resp.Body.Close()
	var fd followup.Detail
	if err := json.NewDecoder(resp.Body).Decode(&fd); err != nil {
		t.Fatalf("decode follow-up: %v", err)
	}
	if fd.PathCount != 1 || len(fd.Replies) != 1 || fd.Replies[0].ID != reply.ID {
		t.Fatalf("unexpected follow-up detail %+v", fd)
	}

	vote := env.do(t, http.MethodPost, "/api/v1/followups/"+itoa(path.ID)+"/vote", token, voteRequest{ChoiceID: path.Choices[0].ID})
	vote.Body.Close()
	if vote.StatusCode != http.StatusSeeOther || vote.Header.Get("Location") != "/api/v1/followups/"+itoa(reply.ID) {
		t.Fatalf("unexpected follow-up vote response %d %q", vote.StatusCode, vote.Header.Get("Location"))
	}

	missing := env.do(t, http.MethodPost, "/api/v1/choices/9999/paths", token, followUpRequest{Content: "orphan"})
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown choice, got %d", missing.StatusCode)
	}
}

func TestOnlyAuthorMayChangeQuestion(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "author@test.com", user.RoleUser, "pass123")
	env.seedUser(t, "other@test.com", user.RoleUser, "pass123")
	author := env.login(t, "author@test.com", "pass123")
	other := env.login(t, "other@test.com", "pass123")
	d := env.createQuestion(t, author, "Mine", "a")
	fu := env.createFollowUp(t, author, "/api/v1/questions/"+itoa(d.ID)+"/branches", "child")

	newText := "Edited"
	resp := env.do(t, http.MethodPatch, "/api/v1/questions/"+itoa(d.ID), other, question.UpdateInput{QuestionText: &newText})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author update, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodDelete, "/api/v1/followups/"+itoa(fu.ID), other, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author follow-up delete, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPut, "/api/v1/questions/"+itoa(d.ID), author, question.UpdateInput{QuestionText: &newText})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for author update, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/questions/"+itoa(d.ID), author, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for author delete, got %d", resp.StatusCode)
	}

	gone := env.do(t, http.MethodGet, "/api/v1/followups/"+itoa(fu.ID), "", nil)
	defer gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Fatalf("expected cascaded follow-up to be gone, got %d", gone.StatusCode)
	}
	if payload := decodeError(t, gone); payload["error"] != "follow_up_not_found" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestAdminSurfaceRequiresAdminRole(t *testing.T) {
	env := setupServer(t, 0, 0)
	env.seedUser(t, "admin@test.com", user.RoleAdmin, "pass123")
	userID := env.seedUser(t, "user@test.com", user.RoleUser, "pass123")
	adminToken := env.login(t, "admin@test.com", "pass123")
	userToken := env.login(t, "user@test.com", "pass123")
	d := env.createQuestion(t, userToken, "Someone's question", "a", "b")

	resp := env.do(t, http.MethodGet, "/api/v1/admin/questions", userToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for user on admin, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/admin/choices?question_id="+itoa(d.ID), adminToken, nil)
	var choices []question.Choice
	if err := json.NewDecoder(resp.Body).Decode(&choices); err != nil {
		t.Fatalf("decode choices: %v", err)
	}
	resp.Body.Close()
	if len(choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(choices))
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/admin/questions/"+itoa(d.ID), adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPatch, "/api/v1/admin/users/"+itoa(userID)+"/deactivate", adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for deactivate, got %d", resp.StatusCode)
	}
	login := env.do(t, http.MethodPost, "/api/v1/auth/login", "", authRequest{Email: "user@test.com", Password: "pass123"})
	defer login.Body.Close()
	if login.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive user, got %d", login.StatusCode)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := setupServer(t, 0, 0)
	for _, path := range []string{"/health", "/ready"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 on %s, got %d", path, resp.StatusCode)
		}
	}
}
