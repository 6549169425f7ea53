package main

import (
	"strings"
	"testing"

	"github.com/nao1215/clfetch/internal/config"
	"github.com/nao1215/clfetch/internal/search"
)

// TestNewSearchCmd tests the search command creation.
func TestNewSearchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSearchCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "search [query]" {
			t.Errorf("expected use 'search [query]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has site flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("site")
		if flag == nil {
			t.Fatal("expected site flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultSite {
			t.Errorf("expected default %q, got %q", config.DefaultSite, flag.DefValue)
		}
	})

	t.Run("has area flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("area")
		if flag == nil {
			t.Fatal("expected area flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
		if flag.DefValue != "" {
			t.Errorf("expected empty default, got %q", flag.DefValue)
		}
	})

	t.Run("has category flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("category")
		if flag == nil {
			t.Fatal("expected category flag")
		}
		if flag.Shorthand != "k" {
			t.Errorf("expected shorthand 'k', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultCategory {
			t.Errorf("expected default %q, got %q", config.DefaultCategory, flag.DefValue)
		}
	})

	t.Run("has max-pages flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-pages")
		if flag == nil {
			t.Fatal("expected max-pages flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "0" {
			t.Errorf("expected default '0', got %q", flag.DefValue)
		}
	})

	t.Run("has preset flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("preset")
		if flag == nil {
			t.Fatal("expected preset flag")
		}
		if flag.Shorthand != "P" {
			t.Errorf("expected shorthand 'P', got %q", flag.Shorthand)
		}
	})

	t.Run("has param flag without shorthand", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("param")
		if flag == nil {
			t.Fatal("expected param flag")
		}
		if flag.Shorthand != "" {
			t.Errorf("expected no shorthand, got %q", flag.Shorthand)
		}
	})

	t.Run("has save flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("save")
		if flag == nil {
			t.Fatal("expected save flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})
}

// presetConfig returns a Config whose presets mirror a typical user
// configuration file.
func presetConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Presets = &config.File{
		Defaults: config.SearchPreset{
			Site: "seattle",
		},
		Searches: map[string]config.SearchPreset{
			"bikes": {
				Site:     "newyork",
				Area:     "brk",
				Category: "bia",
				Query:    "fixie",
				Params:   map[string]string{"min_price": "100"},
				MaxPages: 5,
			},
		},
	}
	return cfg
}

// TestBuildSearchRequest tests search request assembly and precedence.
func TestBuildSearchRequest(t *testing.T) {
	t.Run("applies flag defaults with empty presets", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Presets = &config.File{Searches: make(map[string]config.SearchPreset)}

		cmd := newTestCommand(t, "search")
		req, err := buildSearchRequest(cmd, cfg, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := search.Request{Site: config.DefaultSite, Category: config.DefaultCategory}
		if req.Site != want.Site || req.Area != "" || req.Category != want.Category {
			t.Errorf("unexpected request %+v, want %+v", req, want)
		}
		if req.Query != "" {
			t.Errorf("expected empty query, got %q", req.Query)
		}
		if req.MaxPages != 0 {
			t.Errorf("expected MaxPages 0, got %d", req.MaxPages)
		}
		if req.Params != nil {
			t.Errorf("expected nil params, got %v", req.Params)
		}
	})

	t.Run("named preset fills every field", func(t *testing.T) {
		cmd := newTestCommand(t, "search", "--preset", "bikes")
		req, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.Site != "newyork" {
			t.Errorf("expected site 'newyork', got %q", req.Site)
		}
		if req.Area != "brk" {
			t.Errorf("expected area 'brk', got %q", req.Area)
		}
		if req.Category != "bia" {
			t.Errorf("expected category 'bia', got %q", req.Category)
		}
		if req.Query != "fixie" {
			t.Errorf("expected query 'fixie', got %q", req.Query)
		}
		if req.MaxPages != 5 {
			t.Errorf("expected MaxPages 5, got %d", req.MaxPages)
		}
		if got := req.Params.Get("min_price"); got != "100" {
			t.Errorf("expected min_price '100', got %q", got)
		}
	})

	t.Run("site flag default does not clobber preset site", func(t *testing.T) {
		cmd := newTestCommand(t, "search", "--preset", "bikes")
		req, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.Site != "newyork" {
			t.Errorf("expected preset site to survive, got %q", req.Site)
		}
	})

	t.Run("explicit flags override the preset", func(t *testing.T) {
		cmd := newTestCommand(t, "search",
			"--preset", "bikes", "--site", "chicago", "--category", "mca", "--area", "")
		req, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.Site != "chicago" {
			t.Errorf("expected site 'chicago', got %q", req.Site)
		}
		if req.Category != "mca" {
			t.Errorf("expected category 'mca', got %q", req.Category)
		}
		if req.Area != "" {
			t.Errorf("expected area cleared, got %q", req.Area)
		}
	})

	t.Run("query argument overrides preset query", func(t *testing.T) {
		cmd := newTestCommand(t, "search", "--preset", "bikes")
		req, err := buildSearchRequest(cmd, presetConfig(), []string{"road", "bike"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.Query != "road bike" {
			t.Errorf("expected query 'road bike', got %q", req.Query)
		}
	})

	t.Run("param flags merge over preset params", func(t *testing.T) {
		cmd := newTestCommand(t, "search",
			"--preset", "bikes", "--param", "min_price=200", "--param", "hasPic=1")
		req, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := req.Params.Get("min_price"); got != "200" {
			t.Errorf("expected min_price '200', got %q", got)
		}
		if got := req.Params.Get("hasPic"); got != "1" {
			t.Errorf("expected hasPic '1', got %q", got)
		}
	})

	t.Run("changed max-pages wins over preset", func(t *testing.T) {
		cfg := presetConfig()
		cfg.MaxPages = 2

		cmd := newTestCommand(t, "search", "--preset", "bikes", "--max-pages", "2")
		req, err := buildSearchRequest(cmd, cfg, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.MaxPages != 2 {
			t.Errorf("expected MaxPages 2, got %d", req.MaxPages)
		}
	})

	t.Run("defaults section applies without preset flag", func(t *testing.T) {
		cmd := newTestCommand(t, "search")
		req, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if req.Site != "seattle" {
			t.Errorf("expected configured default site 'seattle', got %q", req.Site)
		}
		if req.Category != config.DefaultCategory {
			t.Errorf("expected category %q, got %q", config.DefaultCategory, req.Category)
		}
	})

	t.Run("returns error for unknown preset", func(t *testing.T) {
		cmd := newTestCommand(t, "search", "--preset", "nope")
		_, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), `preset "nope" not found`) {
			t.Errorf("expected 'preset not found' error, got %v", err)
		}
	})

	t.Run("returns error for malformed param", func(t *testing.T) {
		cmd := newTestCommand(t, "search", "--param", "noequals")
		_, err := buildSearchRequest(cmd, presetConfig(), nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "expected key=value") {
			t.Errorf("expected 'expected key=value' error, got %v", err)
		}
	})
}

// TestSearchTargetLabel tests the progress label rendering.
func TestSearchTargetLabel(t *testing.T) {
	t.Parallel()

	t.Run("site and category", func(t *testing.T) {
		t.Parallel()
		got := searchTargetLabel(search.Request{Site: "sfbay", Category: "bia"})
		if got != "sfbay/bia" {
			t.Errorf("expected 'sfbay/bia', got %q", got)
		}
	})

	t.Run("with area", func(t *testing.T) {
		t.Parallel()
		got := searchTargetLabel(search.Request{Site: "sfbay", Area: "eby", Category: "bia"})
		if got != "sfbay/eby/bia" {
			t.Errorf("expected 'sfbay/eby/bia', got %q", got)
		}
	})
}

// TestRunSearchCmdErrors tests search command failures that happen before
// any fetch is attempted.
func TestRunSearchCmdErrors(t *testing.T) {
	t.Run("rejects unknown preset", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"search", "--config", writeTestConfig(t), "--preset", "nope"})

		err := root.Execute()
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), `preset "nope" not found`) {
			t.Errorf("expected 'preset not found' error, got %v", err)
		}
	})

	t.Run("rejects conflicting report formats", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"search", "--config", writeTestConfig(t), "--json", "--markdown", "bike"})

		if err := root.Execute(); err == nil {
			t.Error("expected error for conflicting report formats")
		}
	})

	t.Run("rejects negative max-pages", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"search", "--config", writeTestConfig(t), "--max-pages", "-1", "bike"})

		if err := root.Execute(); err == nil {
			t.Error("expected error for negative max-pages")
		}
	})
}
