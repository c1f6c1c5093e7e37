// swiftshot-cli is the headless diagnostics companion to SwiftShot: it
// lists capturable windows and monitors, grabs full-desktop snapshots and
// crops existing captures, without touching the tray or the overlay.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

const (
	maxInputSizeMB = 64
	maxInputSize   = maxInputSizeMB * 1024 * 1024
)

// newSource is swapped by tests to fake the window enumeration.
var newSource = winenum.New

type cliOptions struct {
	jsonOutput bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"swiftshot-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "swiftshot-cli",
		Short:         "SwiftShot capture diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Only the requested result goes to stdout; everything else
			// is stderr or discarded.
			if opts.verbose {
				log.SetOutput(os.Stderr)
				fmt.Fprintf(os.Stderr, "[verbose] Starting swiftshot-cli\n")
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(newWindowsCmd(opts))
	cmd.AddCommand(newMonitorsCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newCropCmd(opts))

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"json", "verbose", "children"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		for _, name := range long {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

type windowInfo struct {
	Handle uint64 `json:"handle"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func newWindowsCmd(opts *cliOptions) *cobra.Command {
	var childrenOf uint64
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List capturable windows front to back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindows(opts, childrenOf, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Uint64Var(&childrenOf, "children", 0, "List child windows of the given handle instead of top-level windows")
	return cmd
}

func runWindows(opts *cliOptions, childrenOf uint64, w io.Writer) error {
	src, err := newSource()
	if err != nil {
		return fmt.Errorf("window enumeration unavailable: %w", err)
	}

	var wins []winenum.Window
	if childrenOf != 0 {
		wins, err = src.Children(winenum.Handle(childrenOf))
	} else {
		wins, err = src.TopLevel(0)
	}
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] %d windows\n", len(wins))
	}

	infos := make([]windowInfo, 0, len(wins))
	for _, win := range wins {
		infos = append(infos, windowInfo{
			Handle: uint64(win.Handle),
			Title:  win.Title,
			X:      win.Bounds.Min.X,
			Y:      win.Bounds.Min.Y,
			Width:  win.Bounds.Dx(),
			Height: win.Bounds.Dy(),
		})
	}

	if opts.jsonOutput {
		return writeJSON(w, infos)
	}
	for _, info := range infos {
		fmt.Fprintf(w, "%#x\t%d,%d %dx%d\t%s\n", info.Handle, info.X, info.Y, info.Width, info.Height, info.Title)
	}
	return nil
}

type monitorInfo struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func newMonitorsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List monitor geometry and the virtual desktop bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitors(opts, cmd.OutOrStdout())
		},
	}
}

func runMonitors(opts *cliOptions, w io.Writer) error {
	bounds, err := snapshot.DisplayBounds()
	if err != nil {
		return fmt.Errorf("failed to query displays: %w", err)
	}

	infos := make([]monitorInfo, 0, len(bounds))
	for i, b := range bounds {
		infos = append(infos, monitorInfo{
			Index: i, X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy(),
		})
	}

	if opts.jsonOutput {
		return writeJSON(w, infos)
	}
	for _, info := range infos {
		fmt.Fprintf(w, "monitor %d: %d,%d %dx%d\n", info.Index, info.X, info.Y, info.Width, info.Height)
	}
	if virtual, err := snapshot.VirtualBounds(); err == nil {
		fmt.Fprintf(w, "virtual: %d,%d %dx%d\n", virtual.Min.X, virtual.Min.Y, virtual.Dx(), virtual.Dy())
	}
	return nil
}

func newSnapshotCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <out.png>",
		Short: "Capture the whole virtual desktop to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], cmd.OutOrStdout())
		},
	}
}

func runSnapshot(opts *cliOptions, outPath string, w io.Writer) error {
	snapshot.Init()
	snap, err := snapshot.Capture()
	if err != nil {
		return fmt.Errorf("failed to capture screen: %w", err)
	}

	size := snap.Size()
	full := snap.VirtualRect()
	data, err := snap.EncodePNG(snapshot.Region{
		X: full.Min.X, Y: full.Min.Y, Width: full.Dx(), Height: full.Dy(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	if opts.jsonOutput {
		return writeJSON(w, map[string]any{"path": outPath, "width": size.X, "height": size.Y})
	}
	fmt.Fprintf(w, "Saved %s (%dx%d)\n", outPath, size.X, size.Y)
	return nil
}

func newCropCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crop <in.png> <x,y,WxH> <out.png>",
		Short: "Crop a region out of an existing PNG capture",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrop(opts, args[0], args[1], args[2], cmd.OutOrStdout())
		},
	}
}

func runCrop(opts *cliOptions, inPath, regionSpec, outPath string, w io.Writer) error {
	region, err := parseRegion(regionSpec)
	if err != nil {
		return err
	}

	img, err := loadPNG(inPath)
	if err != nil {
		return err
	}

	if opts.verbose {
		b := img.Bounds()
		fmt.Fprintf(os.Stderr, "[verbose] Input %s is %dx%d, cropping %d,%d %dx%d\n",
			inPath, b.Dx(), b.Dy(), region.X, region.Y, region.Width, region.Height)
	}

	snap := snapshot.FromImage(img, img.Bounds().Min)
	data, err := snap.EncodePNG(region)
	if err != nil {
		return fmt.Errorf("failed to crop: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	if opts.jsonOutput {
		return writeJSON(w, map[string]any{"path": outPath, "width": region.Width, "height": region.Height})
	}
	fmt.Fprintf(w, "Cropped %s -> %s (%dx%d)\n", inPath, outPath, region.Width, region.Height)
	return nil
}

// parseRegion parses "X,Y,WxH", e.g. "100,200,640x480". X and Y may be
// negative (virtual desktop coordinates), W and H must be positive.
func parseRegion(spec string) (snapshot.Region, error) {
	fail := func() (snapshot.Region, error) {
		return snapshot.Region{}, fmt.Errorf("invalid region %q, want X,Y,WxH", spec)
	}

	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return fail()
	}
	size := strings.Split(parts[2], "x")
	if len(size) != 2 {
		return fail()
	}

	var r snapshot.Region
	var err error
	if r.X, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return fail()
	}
	if r.Y, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return fail()
	}
	if r.Width, err = strconv.Atoi(strings.TrimSpace(size[0])); err != nil {
		return fail()
	}
	if r.Height, err = strconv.Atoi(strings.TrimSpace(size[1])); err != nil {
		return fail()
	}
	if r.Width <= 0 || r.Height <= 0 {
		return snapshot.Region{}, fmt.Errorf("invalid region %q: size must be positive", spec)
	}
	return r, nil
}

// loadPNG reads a PNG file into an RGBA image, enforcing a size cap so a
// bad path cannot OOM the tool.
func loadPNG(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("%s exceeds maximum size of %d MB", path, maxInputSizeMB)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid PNG: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
