// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/recommend"
)

const testCatalog = `
songs:
  - id: a
    title: Alpha
    artist: Ann
    genre: jazz
    popularity: 5
    vectors: {audio: [1, 0], image: [1, 0], text: [1, 0]}
  - id: b
    title: Bravo
    artist: Bob
    genre: jazz
    popularity: 1
    vectors: {audio: [0.9, 0.1], image: [1, 0], text: [1, 0]}
  - id: c
    title: Charlie
    artist: Cid
    genre: rock
    popularity: 9
    vectors: {audio: [0, 1], image: [0, 1], text: [0, 1]}
users:
  - id: alice
    liked: [a]
`

// testResponse is the subset of a recommendation response the tests check.
type testResponse struct {
	Items []struct {
		Candidate struct {
			Song struct {
				ID string `json:"id"`
			} `json:"song"`
		} `json:"candidate"`
		Score float64 `json:"score"`
	} `json:"items"`
	Metadata struct {
		Mode string `json:"mode"`
	} `json:"metadata"`
}

func (r *testResponse) ids() []string {
	out := make([]string, len(r.Items))
	for i := range r.Items {
		out[i] = r.Items[i].Candidate.Song.ID
	}
	return out
}

// setupEnv runs the test in a fresh directory with a seeded memory backend.
// It returns the catalog path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	t.Setenv("CADENCE_CONFIG", "")
	t.Setenv("CADENCE_STORE_BACKEND", "memory")
	t.Setenv("CADENCE_CATALOG_SEED", path)
	t.Setenv("CADENCE_DIM_AUDIO", "2")
	t.Setenv("CADENCE_DIM_IMAGE", "2")
	t.Setenv("CADENCE_DIM_TEXT", "2")
	t.Setenv("CADENCE_LOG_LEVEL", "disabled")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), args...)
}

func executeContext(ctx context.Context, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func recommendIDs(t *testing.T, args ...string) (testResponse, []string) {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%v: error = %v", args, err)
	}
	var resp testResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return resp, resp.ids()
}

func equalIDs(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "cadence" {
		t.Errorf("Use = %q, want cadence", cmd.Use)
	}
	for _, name := range []string{"config", "log-level", "log-format", "metrics-dump"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag %q", name)
		}
	}
	for _, name := range []string{"import", "recommend", "songs", "moods", "like", "play", "watch"} {
		if c, _, err := cmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestMoodsCmd(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "moods")
	if err != nil {
		t.Fatalf("moods error = %v", err)
	}
	var moods []string
	if err := json.Unmarshal([]byte(out), &moods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !equalIDs(moods, recommend.Moods()) {
		t.Errorf("moods = %v, want %v", moods, recommend.Moods())
	}
}

func TestRecommendCmd(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name     string
		args     []string
		wantIDs  []string
		wantMode string
	}{
		{"by song", []string{"recommend", "song", "a", "--k", "2"}, []string{"b", "c"}, "by_song"},
		{"by song k=1", []string{"recommend", "song", "a", "-k", "1"}, []string{"b"}, "by_song"},
		{"by image ties by id", []string{"recommend", "image", "1,0"}, []string{"a", "b", "c"}, "by_image"},
		{"personalized excludes history", []string{"recommend", "user", "alice", "--k", "1"}, []string{"b"}, "personalized"},
		{"popular", []string{"recommend", "popular"}, []string{"c", "a", "b"}, "popular"},
		{"popular filtered by genre", []string{"recommend", "popular", "--genre", "JAZZ"}, []string{"a", "b"}, "popular"},
		{"by song filtered by artist", []string{"recommend", "song", "a", "--artist", "cid"}, []string{"c"}, "by_song"},
		{"negative k", []string{"recommend", "popular", "--k", "-1"}, []string{}, "popular"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, got := recommendIDs(t, tt.args...)
			if !equalIDs(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if resp.Metadata.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", resp.Metadata.Mode, tt.wantMode)
			}
		})
	}
}

func TestRecommendCmd_MoodReturnsEveryCandidate(t *testing.T) {
	setupEnv(t)
	_, got := recommendIDs(t, "recommend", "mood", "Happy", "--k", "10")
	if len(got) != 3 {
		t.Errorf("ids = %v, want all three songs", got)
	}
}

func TestRecommendCmd_Errors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown song", []string{"recommend", "song", "zzz"}, recommend.ErrSongNotFound},
		{"unknown mood", []string{"recommend", "mood", "grumpy"}, recommend.ErrUnknownMood},
		{"image dimension mismatch", []string{"recommend", "image", "1,0,0"}, recommend.ErrDimensionMismatch},
		{"zero image", []string{"recommend", "image", "0,0"}, recommend.ErrDegenerateVector},
		{"NaN image", []string{"recommend", "image", "NaN,1"}, recommend.ErrDegenerateVector},
		{"infinite image", []string{"recommend", "image", "1,Inf"}, recommend.ErrDegenerateVector},
		{"user without history", []string{"recommend", "user", "bob"}, recommend.ErrInsufficientHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecommendCmd_FallbackPopular(t *testing.T) {
	setupEnv(t)
	resp, got := recommendIDs(t, "recommend", "user", "bob", "--fallback-popular", "--k", "2")
	if resp.Metadata.Mode != "popular" {
		t.Errorf("mode = %q, want popular", resp.Metadata.Mode)
	}
	if !equalIDs(got, []string{"c", "a"}) {
		t.Errorf("ids = %v, want [c a]", got)
	}
}

func TestRecommendImageCmd_VectorFile(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "vec.json")
	if err := os.WriteFile(path, []byte("[0, 1]"), 0o600); err != nil {
		t.Fatalf("write vector: %v", err)
	}

	_, got := recommendIDs(t, "recommend", "image", "--vector-file", path, "--k", "1")
	if !equalIDs(got, []string{"c"}) {
		t.Errorf("ids = %v, want [c]", got)
	}

	if _, err := execute(t, "recommend", "image", "1,0", "--vector-file", path); err == nil {
		t.Error("argument plus --vector-file: error = nil")
	}
	if _, err := execute(t, "recommend", "image"); err == nil {
		t.Error("no vector: error = nil")
	}
}

func TestParseVector(t *testing.T) {
	tests := []struct {
		in      string
		want    recommend.ModalityVector
		wantErr bool
	}{
		{in: "1,0.5,-2", want: recommend.ModalityVector{1, 0.5, -2}},
		{in: " 1 , 2 ", want: recommend.ModalityVector{1, 2}},
		{in: "1,,2", wantErr: true},
		{in: "a", wantErr: true},
		{in: "NaN,1", wantErr: true},
		{in: "1,+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVector(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVector(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseVector(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseVector(%q) = %v, want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestImportCmd(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "import", path)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	var res struct {
		Songs int `json:"songs"`
		Likes int `json:"likes"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Songs != 3 || res.Likes != 1 {
		t.Errorf("result = %+v, want 3 songs and 1 like", res)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("songs:\n  - {id: x, title: t, artist: a, vectors: {audio: [1, 2, 3]}}\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := execute(t, "import", bad); !errors.Is(err, recommend.ErrDimensionMismatch) {
		t.Errorf("import with wrong dimensions error = %v, want ErrDimensionMismatch", err)
	}
}

func TestBadgerBackend_PersistsAcrossRuns(t *testing.T) {
	path := setupEnv(t)
	t.Setenv("CADENCE_STORE_BACKEND", "badger")
	t.Setenv("CADENCE_STORE_PATH", filepath.Join(t.TempDir(), "db"))
	t.Setenv("CADENCE_CATALOG_SEED", "")

	if _, err := execute(t, "import", path); err != nil {
		t.Fatalf("import error = %v", err)
	}
	if _, err := execute(t, "like", "alice", "b"); err != nil {
		t.Fatalf("like error = %v", err)
	}
	if _, err := execute(t, "play", "alice", "b"); err != nil {
		t.Fatalf("play error = %v", err)
	}

	out, err := execute(t, "songs", "--genre", "jazz")
	if err != nil {
		t.Fatalf("songs error = %v", err)
	}
	var songs []struct {
		ID         string  `json:"id"`
		Popularity float64 `json:"popularity"`
	}
	if err := json.Unmarshal([]byte(out), &songs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(songs) != 2 || songs[1].ID != "b" || songs[1].Popularity != 3 {
		t.Errorf("songs = %+v, want b with popularity 3", songs)
	}

	// Replace drops the interactions recorded above.
	if _, err := execute(t, "import", "--replace", path); err != nil {
		t.Fatalf("import --replace error = %v", err)
	}
	_, got := recommendIDs(t, "recommend", "popular")
	if !equalIDs(got, []string{"c", "a", "b"}) {
		t.Errorf("popular after replace = %v, want [c a b]", got)
	}
}

func TestSQLiteBackend_SeedsOnce(t *testing.T) {
	setupEnv(t)
	t.Setenv("CADENCE_STORE_BACKEND", "sqlite")
	t.Setenv("CADENCE_STORE_SQLITE", filepath.Join(t.TempDir(), "cadence.db"))

	// The first run seeds the empty database; later runs keep its contents.
	for range 2 {
		if _, err := execute(t, "like", "bob", "b"); err != nil {
			t.Fatalf("like error = %v", err)
		}
	}
	_, got := recommendIDs(t, "recommend", "popular")
	if !equalIDs(got, []string{"c", "a", "b"}) {
		t.Errorf("popular = %v, want [c a b]", got)
	}

	// b reaches 1 + 2 + 7 = 10, above c at 9. Reseeding on every run would
	// re-record alice's like of a and push a ahead instead.
	for range 7 {
		if _, err := execute(t, "play", "bob", "b"); err != nil {
			t.Fatalf("play error = %v", err)
		}
	}
	_, got = recommendIDs(t, "recommend", "popular", "-k", "1")
	if !equalIDs(got, []string{"b"}) {
		t.Errorf("popular after plays = %v, want [b]", got)
	}
}

func TestInteractionCmd_UnknownSong(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "like", "alice", "not-in-catalog")
	if err != nil {
		t.Fatalf("like error = %v", err)
	}
	if !strings.Contains(out, `"action": "like"`) {
		t.Errorf("output = %s", out)
	}

	if _, err := execute(t, "play", "bad:user", "a"); err == nil {
		t.Error("invalid user id: error = nil")
	}
}

func TestWatchCmd(t *testing.T) {
	setupEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := executeContext(ctx, "watch"); err != nil {
		t.Errorf("watch error = %v, want nil after context ends", err)
	}

	t.Setenv("CADENCE_CATALOG_SEED", "")
	if _, err := execute(t, "watch"); err == nil {
		t.Error("watch without a catalog: error = nil")
	}
}

func TestMetricsDump(t *testing.T) {
	setupEnv(t)

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--metrics-dump", "recommend", "popular"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(stderr.String(), "cadence_recommend_requests_total") {
		t.Errorf("stderr lacks recommendation metrics:\n%s", stderr.String())
	}
}

func TestConfigErrors(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "--config", "missing.yaml", "moods"); err == nil {
		t.Error("missing --config file: error = nil")
	}
	if _, err := execute(t, "--log-level", "loud", "moods"); err == nil {
		t.Error("invalid --log-level: error = nil")
	}
}
