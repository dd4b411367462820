package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"cartel-index-system/chain"
	"cartel-index-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// raidRecorder captures raid intents the agent submits.
type raidRecorder struct {
	mu      sync.Mutex
	intents []map[string]string
	fail    bool
}

func (r *raidRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/raids" {
			http.NotFound(w, req)
			return
		}
		if r.fail {
			http.Error(w, "chain service down", http.StatusBadGateway)
			return
		}
		var intent map[string]string
		_ = json.NewDecoder(req.Body).Decode(&intent)
		r.mu.Lock()
		r.intents = append(r.intents, intent)
		r.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}
}

func newAgentFixture(t *testing.T, db *gorm.DB, recorder *raidRecorder) *AgentService {
	t.Helper()
	srv := httptest.NewServer(recorder.handler())
	t.Cleanup(srv.Close)
	return NewAgentService(db, NewAggregator(db), chain.NewLogClient(srv.URL, "test-token"))
}

func enableAgent(t *testing.T, agents *AgentService, address string) {
	t.Helper()
	require.NoError(t, agents.SetAgentEnabled(address, true))
}

func TestRunOnceSubmitsOneRaidPerOptedInUser(t *testing.T) {
	db := openTestDB(t)
	recorder := &raidRecorder{}
	agents := newAgentFixture(t, db, recorder)

	actor := seedUser(t, db, "0xagent")
	victim := seedUser(t, db, "0xvictim")
	enableAgent(t, agents, actor)

	summary, err := agents.RunOnce(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Users)
	assert.Equal(t, 1, summary.Submitted)

	require.Len(t, recorder.intents, 1)
	assert.Equal(t, actor, recorder.intents[0]["actor"])
	assert.Equal(t, victim, recorder.intents[0]["target"])

	var run models.AgentRun
	require.NoError(t, db.Where("address = ?", actor).First(&run).Error)
	assert.Equal(t, "submitted", run.Outcome)
	assert.Equal(t, victim, run.TargetAddress)
}

func TestRunOnceSkipsUsersWithoutTargets(t *testing.T) {
	db := openTestDB(t)
	agents := newAgentFixture(t, db, &raidRecorder{})

	actor := seedUser(t, db, "0xlonely")
	enableAgent(t, agents, actor)

	summary, err := agents.RunOnce(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NoTarget)
	assert.Zero(t, summary.Submitted)

	var run models.AgentRun
	require.NoError(t, db.Where("address = ?", actor).First(&run).Error)
	assert.Equal(t, "no_target", run.Outcome)
}

func TestRunOnceRecordsSubmissionFailures(t *testing.T) {
	db := openTestDB(t)
	recorder := &raidRecorder{fail: true}
	agents := newAgentFixture(t, db, recorder)

	actor := seedUser(t, db, "0xunlucky")
	seedUser(t, db, "0xvictim")
	enableAgent(t, agents, actor)

	summary, err := agents.RunOnce(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	var run models.AgentRun
	require.NoError(t, db.Where("address = ?", actor).First(&run).Error)
	assert.Equal(t, "failed", run.Outcome)
	assert.NotEmpty(t, run.Detail)
}

func TestRunOnceIgnoresOptedOutUsers(t *testing.T) {
	db := openTestDB(t)
	recorder := &raidRecorder{}
	agents := newAgentFixture(t, db, recorder)

	seedUser(t, db, "0xsleeper")
	seedUser(t, db, "0xvictim")

	summary, err := agents.RunOnce(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Zero(t, summary.Users)
	assert.Empty(t, recorder.intents)
}

func TestSetAgentEnabledUnknownUser(t *testing.T) {
	db := openTestDB(t)
	agents := newAgentFixture(t, db, &raidRecorder{})

	assert.ErrorIs(t, agents.SetAgentEnabled("0xghost", true), gorm.ErrRecordNotFound)
}
