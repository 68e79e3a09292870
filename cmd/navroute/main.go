package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyuri/navroute/internal/config"
	"github.com/dyuri/navroute/internal/logging"
	"github.com/dyuri/navroute/pkg/navroute"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Settings shared by all commands, filled in before each command runs
var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "navroute",
	Short: "Convert Navigon .route files to and from text, GPX and KML",
	Long: `navroute is a tool for working with Navigon .route files.

It can convert routes between the binary device format, an editable text
format, GPX and KML, inspect and validate route files, and split long
routes into files a device accepts.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: "+config.DefaultPath+" if present)")
	pf.String("charset", "", "Charset of labels in .route files: utf-8 (default), windows-1252, iso-8859-1, iso-8859-15")
	pf.Int("max", 0, "Maximum waypoints per .route file")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Write logs to a rotated file instead of stderr")

	rootCmd.AddCommand(route2txtCmd)
	rootCmd.AddCommand(txt2routeCmd)
	rootCmd.AddCommand(route2gpxCmd)
	rootCmd.AddCommand(gpx2routeCmd)
	rootCmd.AddCommand(route2kmlCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and lets flags override it
func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	c, err := config.Load(path)
	if err != nil {
		return err
	}

	if flags.Changed("charset") {
		c.Charset, _ = flags.GetString("charset")
	}
	if flags.Changed("max") {
		c.MaximumPositionCount, _ = flags.GetInt("max")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		c.Log.File, _ = flags.GetString("log-file")
	}
	c.Charset = strings.ToLower(c.Charset)
	c.Log.Level = strings.ToLower(c.Log.Level)
	if err := c.Validate(); err != nil {
		return err
	}

	log, err := logging.New(c.Log.Level, c.Log.File)
	if err != nil {
		return err
	}

	cfg = c
	logger = log
	logger.Debug("configuration loaded",
		zap.String("charset", cfg.Charset),
		zap.Int("max", cfg.MaximumPositionCount))
	return nil
}

// readBinaryRoute decodes a .route file, naming the route after the file
func readBinaryRoute(path string) (*navroute.Route, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat input file: %w", err)
	}

	enc, err := config.Encoding(cfg.Charset)
	if err != nil {
		return nil, 0, err
	}

	route, err := navroute.ParseBinaryRoute(f, stat.Size(),
		navroute.WithCharset(enc),
		navroute.WithLogger(logger.With(zap.String("file", path))))
	if err != nil {
		return nil, 0, fmt.Errorf("parse route file: %w", err)
	}
	route.Name = routeName(path)

	logger.Info("decoded route",
		zap.String("file", path),
		zap.Int("waypoints", route.Len()))
	return route, stat.Size(), nil
}

// readAnyRoute reads a route in the format its extension names. Anything
// that is neither text nor GPX is taken to be a binary .route file.
func readAnyRoute(path string) (*navroute.Route, error) {
	var parse func(io.Reader) (*navroute.Route, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		parse = navroute.ParseTextRoute
	case ".gpx":
		parse = navroute.ParseGPX
	default:
		route, _, err := readBinaryRoute(path)
		return route, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	route, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if route.Name == "" {
		route.Name = routeName(path)
	}
	return route, nil
}

func routeName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeOutput runs write against the output file, or stdout when path is
// empty.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// route2txt command
var route2txtCmd = &cobra.Command{
	Use:   "route2txt <input.route>",
	Short: "Convert binary route to text format",
	Long: `Convert a binary .route file to the editable text format.

The output can be edited and converted back to binary with txt2route.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute2Txt,
}

func init() {
	route2txtCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	route2txtCmd.Flags().String("format", "text", "Output format: text, json")
}

func runRoute2Txt(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	route, _, err := readBinaryRoute(args[0])
	if err != nil {
		return err
	}

	switch format {
	case "text":
		return writeOutput(outputPath, func(w io.Writer) error {
			return navroute.WriteTextRoute(w, route)
		})
	case "json":
		return writeOutput(outputPath, func(w io.Writer) error {
			return writeJSONRoute(w, route)
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSONRoute(w io.Writer, route *navroute.Route) error {
	waypoints := make([]map[string]interface{}, len(route.Waypoints))
	for i, wp := range route.Waypoints {
		waypoints[i] = map[string]interface{}{
			"label":     wp.Label,
			"longitude": wp.Longitude,
			"latitude":  wp.Latitude,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"name":      route.Name,
		"waypoints": waypoints,
	})
}

// txt2route command
var txt2routeCmd = &cobra.Command{
	Use:   "txt2route <input.txt>",
	Short: "Convert text to binary route format",
	Long: `Convert the text format to a binary .route file.

Routes longer than the maximum waypoint count are split into numbered
files (trip_1.route, trip_2.route, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: runTxt2Route,
}

func init() {
	txt2routeCmd.Flags().StringP("output", "o", "", "Output file (required)")
	txt2routeCmd.MarkFlagRequired("output")
}

func runTxt2Route(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	route, err := navroute.ParseTextRoute(f)
	if err != nil {
		return fmt.Errorf("parse text route: %w", err)
	}

	return writeBinaryRoutes(args[0], outputPath, route)
}

// route2gpx command
var route2gpxCmd = &cobra.Command{
	Use:   "route2gpx <input.route>",
	Short: "Convert binary route to GPX",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute2GPX,
}

func init() {
	route2gpxCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runRoute2GPX(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	route, _, err := readBinaryRoute(args[0])
	if err != nil {
		return err
	}
	return writeOutput(outputPath, func(w io.Writer) error {
		return navroute.WriteGPX(w, route)
	})
}

// gpx2route command
var gpx2routeCmd = &cobra.Command{
	Use:   "gpx2route <input.gpx>",
	Short: "Convert GPX to binary route format",
	Long: `Convert the first route of a GPX file to a binary .route file.

Files without a route use their waypoints, then their first track.
Routes longer than the maximum waypoint count are split into numbered
files.`,
	Args: cobra.ExactArgs(1),
	RunE: runGPX2Route,
}

func init() {
	gpx2routeCmd.Flags().StringP("output", "o", "", "Output file (required)")
	gpx2routeCmd.MarkFlagRequired("output")
}

func runGPX2Route(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	route, err := navroute.ParseGPX(f)
	if err != nil {
		return fmt.Errorf("parse GPX: %w", err)
	}

	return writeBinaryRoutes(args[0], outputPath, route)
}

// writeBinaryRoutes writes route to outputPath, split into numbered files
// when it exceeds the maximum waypoint count.
func writeBinaryRoutes(inputPath, outputPath string, route *navroute.Route) error {
	var written []string
	err := navroute.EncodeSplit(route, cfg.MaximumPositionCount, func(i, n int) (io.WriteCloser, error) {
		path := partPath(outputPath, i, n)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		written = append(written, path)
		return f, nil
	})
	if err != nil {
		return partialWriteError(err, written)
	}

	logger.Info("encoded route",
		zap.String("file", outputPath),
		zap.Int("waypoints", route.Len()),
		zap.Int("parts", len(written)))

	fmt.Fprintf(os.Stderr, "Successfully converted %s to %s\n", inputPath, strings.Join(written, ", "))
	fmt.Fprintf(os.Stderr, "  Waypoints: %d, Files: %d (at most %d waypoints each)\n",
		route.Len(), len(written), cfg.MaximumPositionCount)
	return nil
}

// partialWriteError removes the part that failed and names the parts that
// were written before it.
func partialWriteError(err error, created []string) error {
	var perr *navroute.PartError
	if !errors.As(err, &perr) {
		return err
	}

	if perr.Op != "open" && perr.Part < len(created) {
		os.Remove(created[perr.Part])
	}
	if perr.Part == 0 {
		return err
	}

	logger.Warn("route partially written",
		zap.Int("parts", perr.Parts),
		zap.Strings("written", created[:perr.Part]))
	return fmt.Errorf("%w; written before the failure: %s", err, strings.Join(created[:perr.Part], ", "))
}

// partPath names the i-th of n output files: trip.route stays as it is for
// a single part and becomes trip_1.route, trip_2.route, ... otherwise.
func partPath(path string, i, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}

// route2kml command
var route2kmlCmd = &cobra.Command{
	Use:   "route2kml <input.route>",
	Short: "Convert binary route to KML",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute2KML,
}

func init() {
	route2kmlCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runRoute2KML(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	route, _, err := readBinaryRoute(args[0])
	if err != nil {
		return err
	}
	return writeOutput(outputPath, func(w io.Writer) error {
		return navroute.WriteKML(w, route)
	})
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.route>",
	Short: "Display route file information",
	Long: `Display metadata and statistics about a .route file.

Shows the waypoint count, bounding box and waypoint labels.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	route, size, err := readBinaryRoute(inputPath)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputInfoJSON(os.Stdout, inputPath, route, size)
	}
	return outputInfoText(os.Stdout, inputPath, route, size, brief)
}

// bounds returns the bounding box of the route as west, south, east, north
func bounds(route *navroute.Route) [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, wp := range route.Waypoints {
		b[0] = math.Min(b[0], wp.Longitude)
		b[1] = math.Min(b[1], wp.Latitude)
		b[2] = math.Max(b[2], wp.Longitude)
		b[3] = math.Max(b[3], wp.Latitude)
	}
	return b
}

func outputInfoText(w io.Writer, path string, route *navroute.Route, fileSize int64, brief bool) error {
	if brief {
		fmt.Fprintf(w, "%s: Waypoints=%d Size=%d\n", path, route.Len(), fileSize)
		return nil
	}

	fmt.Fprintf(w, "Route File: %s\n", path)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Name:               %s\n", route.Name)
	fmt.Fprintf(w, "Waypoints:          %d\n", route.Len())
	fmt.Fprintf(w, "File Size:          %s (%d bytes)\n", formatBytes(fileSize), fileSize)
	if route.Len() > 0 {
		b := bounds(route)
		fmt.Fprintf(w, "Bounds:             %.6f,%.6f - %.6f,%.6f\n", b[0], b[1], b[2], b[3])
	}
	fmt.Fprintln(w)

	if route.Len() > 0 {
		fmt.Fprintln(w, "Waypoints:")
		for i, wp := range route.Waypoints {
			fmt.Fprintf(w, "  %2d. %10.6f %10.6f  %s\n", i+1, wp.Longitude, wp.Latitude, wp.Label)
		}
	}

	return nil
}

func outputInfoJSON(w io.Writer, path string, route *navroute.Route, fileSize int64) error {
	info := map[string]interface{}{
		"file":      path,
		"name":      route.Name,
		"waypoints": route.Len(),
		"fileSize":  fileSize,
	}
	if route.Len() > 0 {
		b := bounds(route)
		info["bounds"] = map[string]float64{
			"west":  b[0],
			"south": b[1],
			"east":  b[2],
			"north": b[3],
		}
	}

	labels := make([]string, len(route.Waypoints))
	for i, wp := range route.Waypoints {
		labels[i] = wp.Label
	}
	info["labels"] = labels

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Validate a route",
	Long: `Validate a route for problems a device would reject.

Reads .route files, text (.txt) and GPX (.gpx) files. Checks positions,
labels and the waypoint count against the per-file maximum.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	route, err := readAnyRoute(inputPath)
	if err != nil {
		return err
	}

	v := newValidator(strict)
	v.validate(route, inputPath, cfg.MaximumPositionCount)
	v.printResults(os.Stdout)

	if v.hasErrors() || (strict && v.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}

	return nil
}

// Validator holds validation state
type validator struct {
	strict   bool
	errors   []string
	warnings []string
	file     string
}

func newValidator(strict bool) *validator {
	return &validator{
		strict:   strict,
		errors:   make([]string, 0),
		warnings: make([]string, 0),
	}
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) validate(route *navroute.Route, file string, limit int) {
	v.file = file
	for _, issue := range navroute.Validate(route, limit) {
		if issue.Level == navroute.LevelError {
			v.errors = append(v.errors, issue.String())
		} else {
			v.warnings = append(v.warnings, issue.String())
		}
	}
}

func (v *validator) printResults(w io.Writer) {
	fmt.Fprintf(w, "Validating: %s\n", v.file)
	fmt.Fprintln(w, strings.Repeat("=", 50))

	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Fprintln(w, "✓ Valid route - no issues found")
		return
	}

	if len(v.errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(v.errors))
		for _, err := range v.errors {
			fmt.Fprintf(w, "  ✗ %s\n", err)
		}
	}

	if len(v.warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(v.warnings))
		for _, warn := range v.warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warn)
		}
	}

	fmt.Fprintln(w)
	if len(v.errors) > 0 {
		fmt.Fprintf(w, "Validation failed: %d error(s)", len(v.errors))
		if len(v.warnings) > 0 {
			fmt.Fprintf(w, ", %d warning(s)", len(v.warnings))
		}
		fmt.Fprintln(w)
	} else if len(v.warnings) > 0 {
		fmt.Fprintf(w, "Validation passed with %d warning(s)\n", len(v.warnings))
		if v.strict {
			fmt.Fprintln(w, "(use without --strict to ignore warnings)")
		}
	}
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("navroute version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
