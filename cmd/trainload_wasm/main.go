//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"syscall/js"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lucasjlepore/trainload"
	"github.com/lucasjlepore/trainload/athlete"
	"github.com/lucasjlepore/trainload/memo"
	"github.com/lucasjlepore/trainload/pipeline"
)

// caches holds one series cache per model configuration for the life of the
// page.
var caches = map[trainload.Config]*memo.SeriesCache{}

// registry collects the cache counters; trainloadCacheStats reads it.
var registry = prometheus.NewRegistry()

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	js.Global().Set("analyzeTraining", js.FuncOf(analyzeTraining))
	js.Global().Set("trainloadCacheStats", js.FuncOf(cacheStats))
	select {}
}

func analyzeTraining(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: activities(Uint8Array), options(object)")
	}
	optsArg := args[1]

	opts := pipeline.BytesOptions{
		Activities:      getBytes(args[0]),
		FitFiles:        getFiles(optsArg, "fit_files"),
		Events:          []byte(getString(optsArg, "events", "")),
		Wellness:        []byte(getString(optsArg, "wellness", "")),
		Format:          getString(optsArg, "format", pipeline.FormatCSV),
		AdherenceWindow: getInt(optsArg, "adherence_window"),
		ForecastDays:    getInt(optsArg, "forecast_days"),
	}
	if len(opts.Activities) == 0 && len(opts.FitFiles) == 0 {
		return failure("activities JSON or FIT files are required")
	}

	if s := getString(optsArg, "today", ""); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return failure(fmt.Sprintf("invalid today %q: %v", s, err))
		}
		opts.Today = d
	}

	profile := athlete.Default()
	if s := getString(optsArg, "profile", ""); s != "" {
		p, err := athlete.Parse(s)
		if err != nil {
			return failure(err.Error())
		}
		profile = p
	}
	opts.Profile = profile

	cache, err := cacheFor(profile)
	if err != nil {
		return failure(err.Error())
	}
	opts.Cache = cache

	result, err := pipeline.RunBytes(opts)
	if err != nil {
		return failure(err.Error())
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	out := map[string]any{
		"ok":       true,
		"zip":      payload,
		"warnings": stringsToAny(result.Warnings),
		"files":    stringsToAny(sortedNames(result.Files)),
	}
	if r := result.Report; r != nil && r.Latest != nil && r.Status != nil {
		out["form"] = r.Latest.Form
		out["status"] = r.Status.Key
	}
	return out
}

func cacheFor(p *athlete.Profile) (*memo.SeriesCache, error) {
	cfg, err := p.EngineConfig()
	if err != nil {
		return nil, err
	}
	if c, ok := caches[cfg]; ok {
		return c, nil
	}
	c, err := memo.New(trainload.NewEngine(cfg), memo.Options{SizeBytes: 4 << 20, Registerer: registry})
	if err != nil {
		return nil, err
	}
	caches[cfg] = c
	return c, nil
}

// cacheStats returns the cache counters by full metric name, e.g.
// trainload_pmc_cache_hits_total.
func cacheStats(_ js.Value, _ []js.Value) any {
	values, err := memo.CounterValues(registry)
	if err != nil {
		return failure(err.Error())
	}
	out := map[string]any{
		"ok":             true,
		"cached_configs": len(caches),
	}
	for name, v := range values {
		out[name] = v
	}
	return out
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range sortedNames(files) {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getBytes(v js.Value) []byte {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	n := v.Get("length").Int()
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	js.CopyBytesToGo(out, v)
	return out
}

// getFiles reads an object of file name to Uint8Array.
func getFiles(v js.Value, key string) map[string][]byte {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	obj := v.Get(key)
	if obj.IsUndefined() || obj.IsNull() {
		return nil
	}
	keys := js.Global().Get("Object").Call("keys", obj)
	files := make(map[string][]byte, keys.Length())
	for i := 0; i < keys.Length(); i++ {
		name := keys.Index(i).String()
		if data := getBytes(obj.Get(name)); len(data) > 0 {
			files[name] = data
		}
	}
	return files
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getInt(v js.Value, key string) int {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Int()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
