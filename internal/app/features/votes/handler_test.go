package votes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/decisionjar/decisionjar/internal/app/features/votes"
	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	sessionstore "github.com/decisionjar/decisionjar/internal/app/store/votesessions"
	votestore "github.com/decisionjar/decisionjar/internal/app/store/votes"
	"github.com/decisionjar/decisionjar/internal/app/system/voteflow"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"github.com/decisionjar/decisionjar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type nopAnnouncer struct{}

func (nopAnnouncer) WinnerSelected(primitive.ObjectID, models.Idea) {}

func newTestHandler(t *testing.T) (*votes.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sessions := sessionstore.New(db)
	flow := voteflow.New(
		jarstore.New(db), ideastore.New(db), memberstore.New(db),
		sessions, votestore.New(db), nopAnnouncer{}, zap.NewNop())
	h := votes.NewHandler(flow, sessions, userstore.New(db), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

// voteJar seeds a vote-mode jar with an admin, one member, and two
// approved ideas.
func voteJar(t *testing.T, ctx context.Context, fixtures *testutil.Fixtures) (models.Jar, models.User, models.User, []models.Idea) {
	t.Helper()
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeVote)
	admin := fixtures.CreateUser(ctx, "Admin")
	member := fixtures.CreateUser(ctx, "Member")
	fixtures.AddMember(ctx, jar.ID, admin.ID, models.RoleAdmin)
	fixtures.AddMember(ctx, jar.ID, member.ID, models.RoleMember)
	ideaList := []models.Idea{
		fixtures.CreateIdea(ctx, jar.ID, admin.ID, "Picnic"),
		fixtures.CreateIdea(ctx, jar.ID, admin.ID, "Cinema"),
	}
	return jar, admin, member, ideaList
}

func TestStart(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jar, admin, member, ideaList := voteJar(t, ctx, fixtures)

	start := func(tu testutil.TestUser) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest("POST", "/jars/"+jar.ID.Hex()+"/vote-sessions", tu)
		req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
		rec := httptest.NewRecorder()
		h.Start(rec, req)
		return rec
	}

	if rec := start(testutil.UserFor(member.ID, "Member")); rec.Code != http.StatusForbidden {
		t.Errorf("member start: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec := start(testutil.UserFor(admin.ID, "Admin"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin start: got %d (%s)", rec.Code, rec.Body.String())
	}
	var sess models.VoteSession
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(sess.CandidateIDs) != len(ideaList) {
		t.Errorf("expected %d candidates, got %d", len(ideaList), len(sess.CandidateIDs))
	}

	// A second start conflicts while the first session is active.
	if rec := start(testutil.UserFor(admin.ID, "Admin")); rec.Code != http.StatusConflict {
		t.Errorf("second start: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestStart_WrongMode(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jar := fixtures.CreateJar(ctx, "Random Jar", models.ModeRandom)
	admin := fixtures.CreateUser(ctx, "Admin")
	fixtures.AddMember(ctx, jar.ID, admin.ID, models.RoleAdmin)
	fixtures.CreateIdea(ctx, jar.ID, admin.ID, "Picnic")

	req := testutil.NewAuthenticatedRequest("POST", "/jars/"+jar.ID.Hex()+"/vote-sessions",
		testutil.UserFor(admin.ID, "Admin"))
	req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCastAndResolveFlow(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jar, admin, member, ideaList := voteJar(t, ctx, fixtures)

	req := testutil.NewAuthenticatedRequest("POST", "/jars/"+jar.ID.Hex()+"/vote-sessions",
		testutil.UserFor(admin.ID, "Admin"))
	req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: got %d (%s)", rec.Code, rec.Body.String())
	}
	var sess models.VoteSession
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	cast := func(tu testutil.TestUser, ideaID string) *httptest.ResponseRecorder {
		req := testutil.WithUser(httptest.NewRequest("POST",
			"/vote-sessions/"+sess.ID.Hex()+"/votes",
			strings.NewReader(`{"idea_id":"`+ideaID+`"}`)), tu)
		req = testutil.WithChiURLParam(req, "sessionID", sess.ID.Hex())
		rec := httptest.NewRecorder()
		h.Cast(rec, req)
		return rec
	}

	// A ballot for an idea outside the frozen set is a 400.
	if rec := cast(testutil.UserFor(member.ID, "Member"), primitive.NewObjectID().Hex()); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid candidate: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if rec := cast(testutil.UserFor(member.ID, "Member"), ideaList[0].ID.Hex()); rec.Code != http.StatusOK {
		t.Fatalf("cast: got %d (%s)", rec.Code, rec.Body.String())
	}

	// Both members voted; the second ballot resolves the session.
	last := cast(testutil.UserFor(admin.ID, "Admin"), ideaList[0].ID.Hex())
	if last.Code != http.StatusOK {
		t.Fatalf("final cast: got %d (%s)", last.Code, last.Body.String())
	}
	var resolved models.VoteSession
	if err := json.Unmarshal(last.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if resolved.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed session, got %q", resolved.Status)
	}
	if resolved.WinnerID == nil || *resolved.WinnerID != ideaList[0].ID {
		t.Errorf("winner: got %v", resolved.WinnerID)
	}

	// Reading the session back returns the completed state.
	req = testutil.NewAuthenticatedRequest("GET", "/vote-sessions/"+sess.ID.Hex(),
		testutil.UserFor(member.ID, "Member"))
	req = testutil.WithChiURLParam(req, "sessionID", sess.ID.Hex())
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d (%s)", rec.Code, rec.Body.String())
	}

	// Voting after completion conflicts.
	if rec := cast(testutil.UserFor(member.ID, "Member"), ideaList[1].ID.Hex()); rec.Code != http.StatusConflict {
		t.Errorf("cast after completion: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestResolve_Forced(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jar, admin, member, ideaList := voteJar(t, ctx, fixtures)

	req := testutil.NewAuthenticatedRequest("POST", "/jars/"+jar.ID.Hex()+"/vote-sessions",
		testutil.UserFor(admin.ID, "Admin"))
	req = testutil.WithChiURLParam(req, "jarID", jar.ID.Hex())
	rec := httptest.NewRecorder()
	h.Start(rec, req)
	var sess models.VoteSession
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	resolve := func(tu testutil.TestUser) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest("POST",
			"/vote-sessions/"+sess.ID.Hex()+"/resolve", tu)
		req = testutil.WithChiURLParam(req, "sessionID", sess.ID.Hex())
		rec := httptest.NewRecorder()
		h.Resolve(rec, req)
		return rec
	}

	// Forcing an empty ballot box conflicts.
	if rec := resolve(testutil.UserFor(admin.ID, "Admin")); rec.Code != http.StatusConflict {
		t.Errorf("empty force: got %d, want %d", rec.Code, http.StatusConflict)
	}

	castReq := testutil.WithUser(httptest.NewRequest("POST",
		"/vote-sessions/"+sess.ID.Hex()+"/votes",
		strings.NewReader(`{"idea_id":"`+ideaList[1].ID.Hex()+`"}`)),
		testutil.UserFor(member.ID, "Member"))
	castReq = testutil.WithChiURLParam(castReq, "sessionID", sess.ID.Hex())
	castRec := httptest.NewRecorder()
	h.Cast(castRec, castReq)
	if castRec.Code != http.StatusOK {
		t.Fatalf("cast: got %d (%s)", castRec.Code, castRec.Body.String())
	}

	if rec := resolve(testutil.UserFor(member.ID, "Member")); rec.Code != http.StatusForbidden {
		t.Errorf("member force: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	rec = resolve(testutil.UserFor(admin.ID, "Admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("force: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resolved models.VoteSession
	if err := json.Unmarshal(rec.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if resolved.WinnerID == nil || *resolved.WinnerID != ideaList[1].ID {
		t.Errorf("winner: got %v", resolved.WinnerID)
	}
}

func TestGet_NotFound(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	id := primitive.NewObjectID().Hex()
	req := testutil.NewAuthenticatedRequest("GET", "/vote-sessions/"+id,
		testutil.UserFor(user.ID, "Alice"))
	req = testutil.WithChiURLParam(req, "sessionID", id)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
