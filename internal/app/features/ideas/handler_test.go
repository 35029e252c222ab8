package ideas_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/decisionjar/decisionjar/internal/app/features/ideas"
	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"github.com/decisionjar/decisionjar/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*ideas.Handler, *testutil.Fixtures, *ideastore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	h := ideas.NewHandler(store, memberstore.New(db), zap.NewNop())
	return h, testutil.NewFixtures(t, db), store
}

func TestCreate(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	fixtures.AddMember(ctx, jar.ID, user.ID, models.RoleMember)

	body := `{"title":"Picnic <script>alert(1)</script>","description":"Bring <b>snacks</b>","cost_tier":"$"}`
	req := testutil.WithUser(httptest.NewRequest("POST", "/jars/"+jar.ID.Hex()+"/ideas",
		strings.NewReader(body)), testutil.UserFor(user.ID, "Alice"))
	req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d (%s)", rec.Code, rec.Body.String())
	}
	var idea models.Idea
	if err := json.Unmarshal(rec.Body.Bytes(), &idea); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Titles are stripped to plain text; descriptions keep safe markup.
	if strings.Contains(idea.Title, "<script>") {
		t.Errorf("script survived sanitization: %q", idea.Title)
	}
	if !strings.HasPrefix(idea.Title, "Picnic") {
		t.Errorf("title mangled: %q", idea.Title)
	}
	if !strings.Contains(idea.Description, "<b>") {
		t.Errorf("safe markup stripped from description: %q", idea.Description)
	}
	if idea.Status != models.IdeaStatusPending {
		t.Errorf("expected pending status, got %q", idea.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	stranger := fixtures.CreateUser(ctx, "Stranger")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	fixtures.AddMember(ctx, jar.ID, user.ID, models.RoleMember)

	post := func(tu testutil.TestUser, body string) *httptest.ResponseRecorder {
		req := testutil.WithUser(httptest.NewRequest("POST", "/jars/"+jar.ID.Hex()+"/ideas",
			strings.NewReader(body)), tu)
		req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		return rec
	}

	alice := testutil.UserFor(user.ID, "Alice")
	if rec := post(alice, `{"title":"   "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("blank title: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := post(alice, `{"title":"X","cost_tier":"$$$$"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad cost tier: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := post(alice, `{"title":"X","activity_level":"extreme"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad activity level: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := post(testutil.UserFor(stranger.ID, "Stranger"), `{"title":"X"}`); rec.Code != http.StatusForbidden {
		t.Errorf("stranger: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestListEligible(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	fixtures.AddMember(ctx, jar.ID, user.ID, models.RoleMember)
	fixtures.CreateIdeaWith(ctx, models.Idea{
		JarID: jar.ID, CreatedBy: user.ID, Title: "Walk",
		Status: models.IdeaStatusApproved, CostTier: models.CostLow,
	})
	fixtures.CreateIdeaWith(ctx, models.Idea{
		JarID: jar.ID, CreatedBy: user.ID, Title: "Fancy dinner",
		Status: models.IdeaStatusApproved, CostTier: models.CostHigh,
	})

	req := testutil.NewAuthenticatedRequest("GET",
		"/jars/"+jar.ID.Hex()+"/ideas?max_cost=%24", testutil.UserFor(user.ID, "Alice"))
	req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
	rec := httptest.NewRecorder()
	h.ListEligible(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d (%s)", rec.Code, rec.Body.String())
	}
	var pool []models.Idea
	if err := json.Unmarshal(rec.Body.Bytes(), &pool); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(pool) != 1 || pool[0].Title != "Walk" {
		t.Errorf("query filter ignored: %+v", pool)
	}
}

func TestReview(t *testing.T) {
	h, fixtures, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin")
	member := fixtures.CreateUser(ctx, "Member")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	fixtures.AddMember(ctx, jar.ID, admin.ID, models.RoleAdmin)
	fixtures.AddMember(ctx, jar.ID, member.ID, models.RoleMember)
	idea := fixtures.CreateIdeaWith(ctx, models.Idea{
		JarID: jar.ID, CreatedBy: member.ID, Title: "Picnic",
	})

	review := func(tu testutil.TestUser, status string) *httptest.ResponseRecorder {
		req := testutil.WithUser(httptest.NewRequest("PUT", "/ideas/"+idea.ID.Hex()+"/status",
			strings.NewReader(`{"status":"`+status+`"}`)), tu)
		req = testutil.WithChiURLParam(req, "ideaID", idea.ID.Hex())
		rec := httptest.NewRecorder()
		h.Review(rec, req)
		return rec
	}

	if rec := review(testutil.UserFor(member.ID, "Member"), models.IdeaStatusApproved); rec.Code != http.StatusForbidden {
		t.Errorf("member review: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := review(testutil.UserFor(admin.ID, "Admin"), "shelved"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := review(testutil.UserFor(admin.ID, "Admin"), models.IdeaStatusApproved); rec.Code != http.StatusOK {
		t.Fatalf("admin review: got %d (%s)", rec.Code, rec.Body.String())
	}

	got, err := store.GetByID(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.IdeaStatusApproved {
		t.Errorf("status: got %q", got.Status)
	}
}

func TestReset(t *testing.T) {
	h, fixtures, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	fixtures.AddMember(ctx, jar.ID, admin.ID, models.RoleAdmin)
	idea := fixtures.CreateIdea(ctx, jar.ID, admin.ID, "Picnic")

	reset := func() *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest("POST", "/ideas/"+idea.ID.Hex()+"/reset",
			testutil.UserFor(admin.ID, "Admin"))
		req = testutil.WithChiURLParam(req, "ideaID", idea.ID.Hex())
		rec := httptest.NewRecorder()
		h.Reset(rec, req)
		return rec
	}

	// Resetting an unconsumed idea conflicts.
	if rec := reset(); rec.Code != http.StatusConflict {
		t.Errorf("unselected reset: got %d, want %d", rec.Code, http.StatusConflict)
	}

	if _, err := store.CommitWinner(ctx, jar.ID, idea.ID, time.Now()); err != nil {
		t.Fatalf("CommitWinner failed: %v", err)
	}
	if rec := reset(); rec.Code != http.StatusOK {
		t.Fatalf("reset: got %d (%s)", rec.Code, rec.Body.String())
	}

	got, err := store.GetByID(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SelectedAt != nil {
		t.Error("expected SelectedAt cleared")
	}
}
