package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"swiftshot-cli", "windows", "-json", "-verbose"},
			out:  []string{"swiftshot-cli", "windows", "--json", "--verbose"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"swiftshot-cli", "windows", "-children=42", "-json=true"},
			out:  []string{"swiftshot-cli", "windows", "--children=42", "--json=true"},
		},
		{
			name: "Leaves double dash and positionals unchanged",
			in:   []string{"swiftshot-cli", "crop", "--json", "in.png", "1,2,3x4", "out.png"},
			out:  []string{"swiftshot-cli", "crop", "--json", "in.png", "1,2,3x4", "out.png"},
		},
		{
			name: "Leaves short flags unchanged",
			in:   []string{"swiftshot-cli", "windows", "-v"},
			out:  []string{"swiftshot-cli", "windows", "-v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestRootCmdParsesFlags(t *testing.T) {
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--json", "-v"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.jsonOutput {
		t.Fatal("Expected jsonOutput=true")
	}
	if !opts.verbose {
		t.Fatal("Expected verbose=true")
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		spec    string
		want    [4]int // x, y, w, h
		wantErr bool
	}{
		{spec: "100,200,640x480", want: [4]int{100, 200, 640, 480}},
		{spec: "-1920,-32,800x600", want: [4]int{-1920, -32, 800, 600}},
		{spec: " 5 , 6 , 7x8 ", want: [4]int{5, 6, 7, 8}},
		{spec: "1,2,0x4", wantErr: true},
		{spec: "1,2,3x-4", wantErr: true},
		{spec: "1,2,3x4junk", wantErr: true},
		{spec: "1,2", wantErr: true},
		{spec: "a,b,cxd", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			r, err := parseRegion(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRegion(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := [4]int{r.X, r.Y, r.Width, r.Height}
			if got != tt.want {
				t.Errorf("parseRegion(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test png: %v", err)
	}
}

func TestCropCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeTestPNG(t, in, 20, 10)

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"crop", in, "2,3,5x4", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("crop failed: %v", err)
	}

	if !strings.HasPrefix(stdout.String(), "Cropped ") {
		t.Errorf("unexpected output: %q", stdout.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("crop output missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("crop output is not PNG: %v", err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 4 {
		t.Errorf("crop size = %dx%d, want 5x4", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropCommandRejectsOutsideRegion(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeTestPNG(t, in, 8, 8)

	err := runWithArgs([]string{"swiftshot-cli", "crop", in, "100,100,5x5", filepath.Join(dir, "out.png")})
	if err == nil || !strings.Contains(err.Error(), "outside") {
		t.Fatalf("expected outside-desktop error, got %v", err)
	}
}

func TestCropCommandRejectsNonPNG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	if err := os.WriteFile(in, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runWithArgs([]string{"swiftshot-cli", "crop", in, "0,0,2x2", filepath.Join(dir, "out.png")})
	if err == nil || !strings.Contains(err.Error(), "not a valid PNG") {
		t.Fatalf("expected PNG validation error, got %v", err)
	}
}

type fakeSource struct {
	top  []winenum.Window
	kids map[winenum.Handle][]winenum.Window
}

func (f fakeSource) TopLevel(exclude winenum.Handle) ([]winenum.Window, error) {
	return f.top, nil
}

func (f fakeSource) Children(parent winenum.Handle) ([]winenum.Window, error) {
	return f.kids[parent], nil
}

func TestWindowsCommandJSON(t *testing.T) {
	orig := newSource
	defer func() { newSource = orig }()
	newSource = func() (winenum.Source, error) {
		return fakeSource{
			top: []winenum.Window{
				{Handle: 0x10, Bounds: image.Rect(0, 0, 800, 600), Title: "Editor"},
				{Handle: 0x20, Bounds: image.Rect(100, 50, 740, 530), Title: "Terminal"},
			},
			kids: map[winenum.Handle][]winenum.Window{
				0x10: {{Handle: 0x11, Bounds: image.Rect(0, 0, 800, 40), Title: "Toolbar"}},
			},
		}, nil
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"windows", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("windows failed: %v", err)
	}

	var infos []windowInfo
	if err := json.Unmarshal(stdout.Bytes(), &infos); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, stdout.String())
	}
	if len(infos) != 2 {
		t.Fatalf("got %d windows, want 2", len(infos))
	}
	if infos[0].Title != "Editor" || infos[0].Width != 800 || infos[0].Height != 600 {
		t.Errorf("first window = %+v", infos[0])
	}
}

func TestWindowsCommandChildren(t *testing.T) {
	orig := newSource
	defer func() { newSource = orig }()
	newSource = func() (winenum.Source, error) {
		return fakeSource{
			kids: map[winenum.Handle][]winenum.Window{
				0x10: {{Handle: 0x11, Bounds: image.Rect(0, 0, 800, 40), Title: "Toolbar"}},
			},
		}, nil
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"windows", "--children", "16", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("windows --children failed: %v", err)
	}

	var infos []windowInfo
	if err := json.Unmarshal(stdout.Bytes(), &infos); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(infos) != 1 || infos[0].Title != "Toolbar" {
		t.Errorf("children = %+v, want the toolbar", infos)
	}
}
