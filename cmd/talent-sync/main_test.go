package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-sync/internal/api/apitest"
	"talent-sync/internal/models"
)

type cli struct {
	t      *testing.T
	srv    *apitest.Server
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := apitest.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`app:
  name: talent-sync-cli-test
api:
  base_url: %s
  timeout: 5000
session:
  backend: file
  file_path: %s
logging:
  level: error
  output: stderr
`, srv.URL, filepath.Join(dir, "session.json"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return &cli{t: t, srv: srv, config: path}
}

func (c *cli) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", c.config}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_Usage(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: talent-sync")

	code, _, stderr = c.run("teleport")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "teleport"`)
}

func TestCLI_RequiresSignIn(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run("talents")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "You need to sign in first")
}

func TestCLI_LoginPersistsAcrossInvocations(t *testing.T) {
	c := newCLI(t)
	user, _ := c.srv.SeedStudent("ada@uni.edu", "secret1", "Ada", "Lovelace")

	code, stdout, stderr := c.run("login", "-email", "ada@uni.edu", "-password", "secret1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Signed in as Ada Lovelace")

	code, stdout, _ = c.run("whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, user.ID)
	assert.Contains(t, stdout, "ada@uni.edu")

	code, stdout, _ = c.run("logout")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Signed out")

	code, _, _ = c.run("whoami")
	assert.Equal(t, 1, code)
}

func TestCLI_BadLogin(t *testing.T) {
	c := newCLI(t)
	c.srv.SeedStudent("ada@uni.edu", "secret1", "Ada", "Lovelace")

	code, _, stderr := c.run("login", "-email", "not-an-email", "-password", "secret1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "email has an invalid format")
}

func TestCLI_TalentsAndSocial(t *testing.T) {
	c := newCLI(t)
	c.srv.SeedStudent("ada@uni.edu", "secret1", "Ada", "Lovelace")
	talent := c.srv.SeedTalent(models.Talent{StudentID: "someone", Title: "Cello", Category: "Music"})

	code, _, stderr := c.run("login", "-email", "ada@uni.edu", "-password", "secret1")
	require.Equal(t, 0, code, stderr)

	code, stdout, _ := c.run("talents")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Cello")

	code, _, stderr = c.run("like", talent.ID)
	require.Equal(t, 0, code, stderr)

	code, stdout, _ = c.run("liked")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, talent.ID)

	code, stdout, _ = c.run("feed")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "LIKED")
	assert.Contains(t, stdout, "*")

	code, _, stderr = c.run("like")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "expected 1 argument")
}

func TestCLI_ChatAndFollow(t *testing.T) {
	c := newCLI(t)
	c.srv.SeedStudent("ada@uni.edu", "secret1", "Ada", "Lovelace")
	bob, _ := c.srv.SeedStudent("bob@uni.edu", "secret1", "Bob", "Builder")

	code, _, stderr := c.run("login", "-email", "ada@uni.edu", "-password", "secret1")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := c.run("start-chat", bob.ID)
	require.Equal(t, 0, code, stderr)
	convID := string(bytes.TrimSpace([]byte(stdout)))
	require.NotEmpty(t, convID)

	code, _, stderr = c.run("send", convID, "hello", "there")
	require.Equal(t, 0, code, stderr)

	code, stdout, _ = c.run("messages", convID)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "you: hello there")

	code, stdout, _ = c.run("conversations")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Bob Builder")

	code, stdout, _ = c.run("follow-status", bob.ID)
	require.Equal(t, 0, code)
	assert.Equal(t, "false\n", stdout)

	code, _, _ = c.run("follow", bob.ID)
	require.Equal(t, 0, code)

	code, stdout, _ = c.run("follow-status", bob.ID)
	require.Equal(t, 0, code)
	assert.Equal(t, "true\n", stdout)
}

func TestCLI_WatchNeedsRealtime(t *testing.T) {
	c := newCLI(t)
	c.srv.SeedStudent("ada@uni.edu", "secret1", "Ada", "Lovelace")
	code, _, _ := c.run("login", "-email", "ada@uni.edu", "-password", "secret1")
	require.Equal(t, 0, code)

	code, _, stderr := c.run("watch")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "realtime is disabled")
}
