package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/repository"
	"github.com/alexanderramin/promptforge/internal/testutil"
)

// storedHistory reads the env's database directly.
func (e *cliEnv) storedHistory(t *testing.T, userID string) []domain.HistoryEntry {
	t.Helper()
	database := testutil.OpenTestDB(t, e.db)
	entries, err := repository.NewSQLiteHistoryRepo(database).ListHistory(context.Background(), userID, 0)
	require.NoError(t, err)
	return entries
}

// --- Root command ---

func TestRootCmd_LineModeWhenNotInteractive(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")

	out, err := env.executeCmd(t, lines("/quick", landingTask))

	require.NoError(t, err)
	assert.Contains(t, out, "Quick mode")
	assert.Contains(t, out, "expert copywriter")
}

func TestRootCmd_Version(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustExecute(t, "--version")

	assert.Contains(t, out, "promptforge version test")
}

func TestRootCmd_UnknownLogLevel(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.executeCmd(t, "", "--log-level", "loud", "quota")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

// --- Account ---

func TestLoginQuotaAndTier(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustExecute(t, "login", "alice", "--email", "alice@example.com")
	assert.Contains(t, out, "Signed in as alice")

	out = env.mustExecute(t, "quota")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "TRIAL")
	assert.Contains(t, out, "Generations")
	assert.Contains(t, out, "Trial ends")

	out = env.mustExecute(t, "quota", "tier", "basic")
	assert.Contains(t, out, "BASIC")
	assert.NotContains(t, out, "Trial ends")

	_, err := env.executeCmd(t, "", "quota", "tier", "platinum")
	assert.Error(t, err)
}

func TestLogout_SignedOutCommandsFail(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")

	out := env.mustExecute(t, "logout")
	assert.Contains(t, out, "Signed out.")

	_, err := env.executeCmd(t, "", "quota")
	assert.ErrorIs(t, err, errSignedOut)
	_, err = env.executeCmd(t, "", "history", "list")
	assert.ErrorIs(t, err, errSignedOut)
}

// --- Ask and history ---

func TestAskThenHistory(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")

	out := env.mustExecute(t, "ask", "--quick", landingTask)
	assert.Contains(t, out, "expert copywriter")

	out = env.mustExecute(t, "history", "list")
	assert.Contains(t, out, "TASK")
	assert.Contains(t, out, "landing page")

	entries := env.storedHistory(t, "alice")
	require.Len(t, entries, 1)
	id := entries[0].ID

	out = env.mustExecute(t, "history", "show", id[:6])
	assert.Contains(t, out, "Task: "+landingTask)
	assert.Contains(t, out, "expert copywriter")

	out = env.mustExecute(t, "history", "show", id, "--raw")
	assert.Equal(t, entries[0].Body+"\n", out)

	out = env.mustExecute(t, "history", "show", id, "--html")
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "expert copywriter")

	_, err := env.executeCmd(t, "", "history", "show", id, "--html", "--raw")
	assert.Error(t, err)
}

func TestHistoryShow_UnknownID(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")

	_, err := env.executeCmd(t, "", "history", "show", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `no prompt with id "nope"`)
}

func TestHistoryShow_OtherUsersEntriesAreHidden(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")
	env.mustExecute(t, "ask", "--quick", landingTask)
	id := env.storedHistory(t, "alice")[0].ID

	env.mustExecute(t, "login", "bob")
	_, err := env.executeCmd(t, "", "history", "show", id)

	assert.Error(t, err)
	out := env.mustExecute(t, "history", "list")
	assert.Contains(t, out, "No prompts yet.")
}

// --- Preferences ---

func TestPrefsSetShowSkipReset(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustExecute(t, "prefs", "set", "tone=Casual", "audience=Students")
	assert.Contains(t, out, "Casual")
	assert.Contains(t, out, "Students")

	out = env.mustExecute(t, "prefs")
	assert.Contains(t, out, "Casual")
	assert.Contains(t, out, "(not set)")

	out = env.mustExecute(t, "prefs", "skip", "depth")
	assert.Contains(t, out, "[don't ask]")

	out = env.mustExecute(t, "prefs", "skip", "depth", "--undo")
	assert.NotContains(t, out, "[don't ask]")

	out = env.mustExecute(t, "prefs", "reset")
	assert.Contains(t, out, "Preferences cleared")
	out = env.mustExecute(t, "prefs")
	assert.NotContains(t, out, "Casual")
}

func TestPrefsSet_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.executeCmd(t, "", "prefs", "set", "bogus=1")
	assert.Error(t, err)

	_, err = env.executeCmd(t, "", "prefs", "set", "tone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	_, err = env.executeCmd(t, "", "prefs", "set")
	assert.Error(t, err, "the form needs a terminal")
}

func TestPrefs_FollowSignIn(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "prefs", "set", "tone=Casual")

	env.mustExecute(t, "login", "alice")

	out := env.mustExecute(t, "prefs")
	assert.Contains(t, out, "user:alice")
	assert.Contains(t, out, "Casual", "anonymous preferences move to the account")
}

func TestApplyAssignments(t *testing.T) {
	p, err := applyAssignments(domain.Preferences{Tone: "Casual"}, []string{"audience=Students", "tone="})

	require.NoError(t, err)
	assert.Equal(t, "Students", p.Audience)
	assert.Empty(t, p.Tone, "an empty value clears the key")
}

func TestToggleKey(t *testing.T) {
	keys := toggleKey(nil, domain.PrefDepth, true)
	assert.Equal(t, []domain.PreferenceKey{domain.PrefDepth}, keys)

	keys = toggleKey(keys, domain.PrefDepth, true)
	assert.Len(t, keys, 1, "no duplicates")

	keys = toggleKey(keys, domain.PrefDepth, false)
	assert.Empty(t, keys)
}

// --- Drafts ---

func TestDraftShowAndDiscard(t *testing.T) {
	env := newCLIEnv(t)
	env.mustExecute(t, "login", "alice")

	out := env.mustExecute(t, "draft")
	assert.Contains(t, out, "No saved conversation.")

	_, err := env.executeCmd(t, lines(landingTask))
	require.NoError(t, err)

	out = env.mustExecute(t, "draft")
	assert.Contains(t, out, "Task: "+landingTask)
	assert.Contains(t, out, "Answer a few quick questions first?")

	out = env.mustExecute(t, "draft", "discard")
	assert.Contains(t, out, "discarded")

	out = env.mustExecute(t, "draft")
	assert.Contains(t, out, "No saved conversation.")
}

// --- Config ---

func TestConfigShow_RedactsSecrets(t *testing.T) {
	env := newCLIEnv(t)
	cfg := "llm:\n  api_key: sk-very-secret\nserver:\n  tokens:\n    - token: tok-very-secret\n      user_id: alice\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))

	out := env.mustExecute(t, "config", "show")

	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "user_id: alice")
}

func TestConfigInit(t *testing.T) {
	env := newCLIEnv(t)
	env.config = filepath.Join(env.dir, "fresh", "config.yaml")

	out := env.mustExecute(t, "config", "init")
	assert.Contains(t, out, "Wrote")
	_, err := os.Stat(env.config)
	require.NoError(t, err)

	_, err = env.executeCmd(t, "", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	env.mustExecute(t, "config", "init", "--force")
}
