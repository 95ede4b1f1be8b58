package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
	"github.com/kailas-cloud/prodsearch/internal/repository/artifact"
)

const testCatalog = `product_id,product_title,product_brand,product_color
P1,red shoes,Acme,red
P2,blue shoes,Zeta,blue
P3,green hat,Acme,green
`

func writeFixtures(t *testing.T) (catalogPath, artifactDir string) {
	t.Helper()
	dir := t.TempDir()
	catalogPath = filepath.Join(dir, "products.csv")
	if err := os.WriteFile(catalogPath, []byte(testCatalog), 0o600); err != nil {
		t.Fatal(err)
	}
	artifactDir = filepath.Join(dir, "artifacts")
	sp, err := vectorspace.New(vectorspace.ModeCLS, []string{"P1", "P2", "P3"},
		[][]float32{{1, 0}, {0, 1}, {0.5, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if err := artifact.Save(artifactDir, sp); err != nil {
		t.Fatal(err)
	}
	return catalogPath, artifactDir
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	catalogPath, artifactDir := writeFixtures(t)
	cfg := config.Config{
		Catalog: config.CatalogConfig{Path: catalogPath},
		Dense:   config.DenseConfig{ArtifactDir: artifactDir},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewApp_DiscoversSpaces(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	if a.catalog.Len() != 3 {
		t.Errorf("catalog items = %d, want 3", a.catalog.Len())
	}
	infos := a.search.Spaces()
	if len(infos) != 1 || infos[0].ID != "cls" || !infos[0].Default {
		t.Errorf("spaces = %+v", infos)
	}
	if a.encoder != nil || a.store != nil {
		t.Error("encoder and cache must stay disabled without config")
	}
	if report := a.health.Check(context.Background()); report.Status != "ok" {
		t.Errorf("health = %+v", report)
	}
}

func TestNewApp_ConfiguredSpaceMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dense.Spaces = []config.WeightConfig{{Name: "mean", Weight: 1}}
	if _, err := newApp(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing configured space")
	}
}

func TestNewApp_NoArtifacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dense.ArtifactDir = t.TempDir()
	a, err := newApp(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if a.search.SpaceCount() != 0 {
		t.Errorf("expected no spaces, got %d", a.search.SpaceCount())
	}
}

func writeConfigFile(t *testing.T, cfg config.Config) string {
	t.Helper()
	yml := "catalog:\n  path: " + cfg.Catalog.Path + "\ndense:\n  artifact_dir: " + cfg.Dense.ArtifactDir + "\n"
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand_Text(t *testing.T) {
	path := writeConfigFile(t, testConfig(t))

	out, err := runCLI(t, "--env", "test", "--config", path, "search", "shoes", "Acme")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "P1") || !strings.Contains(lines[1], "1.6000") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestSearchCommand_JSONPerField(t *testing.T) {
	path := writeConfigFile(t, testConfig(t))

	out, err := runCLI(t, "--env", "test", "--config", path, "search", "Acme", "--no-aggregate", "--format", "json")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	var payload struct {
		Mode   string      `json:"mode"`
		Fields []jsonField `json:"fields"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Mode != "sparse" || len(payload.Fields) != 4 {
		t.Fatalf("payload = %+v", payload)
	}
	brand := payload.Fields[1]
	if brand.Field != "product_brand" || len(brand.Rows) != 2 || brand.Rows[0].ID != "P1" {
		t.Errorf("brand list = %+v", brand)
	}
}

func TestSearchCommand_DenseWithoutEncoder(t *testing.T) {
	path := writeConfigFile(t, testConfig(t))
	if _, err := runCLI(t, "--env", "test", "--config", path, "search", "shoes", "--mode", "dense"); err == nil {
		t.Fatal("expected error without encoder")
	}
}

func TestBuildSpaceCommand_RequiresEncoder(t *testing.T) {
	path := writeConfigFile(t, testConfig(t))
	if _, err := runCLI(t, "--env", "test", "--config", path, "build-space", "--mode", "mean"); err == nil {
		t.Fatal("expected error without embedding.model")
	}
}
