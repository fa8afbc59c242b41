package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Output != DefaultOutput || cfg.Defaults.MaxEvents != DefaultMaxEvents {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.Defaults.Region != "" {
		t.Fatalf("region should be left to the AWS chain, got %q", cfg.Defaults.Region)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[defaults]
region = "eu-west-1"
output = "table"
max_events = 250

[profiles.prod]
assume_role = "arn:aws:iam::123456789012:role/ReadLogs"
region = "eu-central-1"

[aliases]
api = "/ecs/prod/api"
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Region != "eu-west-1" || cfg.Defaults.Output != "table" || cfg.Defaults.MaxEvents != 250 {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.Profiles["prod"].AssumeRole == "" || cfg.RegionFor("prod") != "eu-central-1" {
		t.Fatalf("unexpected profile %+v", cfg.Profiles["prod"])
	}
	if cfg.RegionFor("dev") != "eu-west-1" {
		t.Fatalf("unknown profiles should fall back to the default region")
	}
	if cfg.ResolveGroup("api") != "/ecs/prod/api" || cfg.ResolveGroup("/raw/group") != "/raw/group" {
		t.Fatalf("alias resolution failed")
	}
	got := cfg.ResolveGroups([]string{"api", "other"})
	if got[0] != "/ecs/prod/api" || got[1] != "other" {
		t.Fatalf("unexpected resolved groups %v", got)
	}
}

func TestLoadYAMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "defaults:\n  output: json\naliases:\n  web: /ecs/web\n")
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Output != "json" || cfg.ResolveGroup("web") != "/ecs/web" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[defaults\nregion = ")
	if _, err := Load(path, ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestProjectConfigOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.toml")
	writeFile(t, global, `
[defaults]
region = "us-west-2"
max_events = 500
[profiles.prod]
region = "us-west-1"
assume_role = "role-a"
[aliases]
api = "/global/api"
web = "/global/web"
`)
	project := filepath.Join(dir, "repo", ProjectFile)
	writeFile(t, project, `
[defaults]
output = "plain"
[profiles.prod]
region = "ap-south-1"
[aliases]
api = "/project/api"
`)
	cfg, err := Load(global, project)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Region != "us-west-2" || cfg.Defaults.Output != "plain" || cfg.Defaults.MaxEvents != 500 {
		t.Fatalf("unexpected merged defaults %+v", cfg.Defaults)
	}
	if p := cfg.Profiles["prod"]; p.Region != "ap-south-1" || p.AssumeRole != "role-a" {
		t.Fatalf("unexpected merged profile %+v", p)
	}
	if cfg.ResolveGroup("api") != "/project/api" || cfg.ResolveGroup("web") != "/global/web" {
		t.Fatalf("unexpected merged aliases %v", cfg.Aliases)
	}
}

func TestSaveRoundTrips(t *testing.T) {
	for _, name := range []string{"nested/config.toml", "nested/config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Aliases = map[string]string{"api": "/ecs/api"}
			cfg.Profiles = map[string]Profile{"prod": {Region: "eu-west-1"}}
			if err := Save(path, cfg); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := Load(path, "")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded.Defaults != cfg.Defaults || loaded.ResolveGroup("api") != "/ecs/api" || loaded.RegionFor("prod") != "eu-west-1" {
				t.Fatalf("round trip mismatch: %+v", loaded)
			}
		})
	}
}

func TestEncodeTOMLUsesSnakeCaseKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default(), "toml"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[defaults]", "region = 'us-east-1'", "max_events = 1000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("encoded config missing %q:\n%s", want, out)
		}
	}
	if err := Encode(&buf, Default(), "ini"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestResolvePathExpandsHome(t *testing.T) {
	path, err := ResolvePath("~/custom/cwl.toml")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.HasPrefix(path, "~") || !strings.HasSuffix(path, filepath.Join("custom", "cwl.toml")) {
		t.Fatalf("unexpected path %s", path)
	}
	def, err := ResolvePath("")
	if err != nil || !strings.HasSuffix(def, filepath.Join(".config", "cwl", "config.toml")) {
		t.Fatalf("unexpected default path %s/%v", def, err)
	}
}

func TestFindRepoRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ProjectFile), "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := FindRepoRoot(nested); got != root {
		t.Fatalf("expected %s, got %s", root, got)
	}
	if DefaultRepoPath(root) != filepath.Join(root, ProjectFile) {
		t.Fatalf("unexpected project path")
	}
	if DefaultRepoPath("  ") != "" {
		t.Fatalf("empty root must yield no project path")
	}
}
