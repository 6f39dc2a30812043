// Command provider_compare checks response parity between two deployments of
// the dashboard API, typically one backed by the live Canvas provider and one
// by a snapshot database. Volatile fields (timestamps, timing metadata) are
// stripped before comparison.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Path     string
	Critical bool
}

var defaultTargets = []target{
	{Path: "/api/v1/dashboard", Critical: true},
	{Path: "/api/v1/dashboard/prediction", Critical: true},
	{Path: "/health", Critical: false},
}

var volatileFields = map[string]struct{}{
	"generatedAt":        {},
	"processing_time_ms": {},
	"cache_hit":          {},
	"expiresAt":          {},
	"accessToken":        {},
}

type comparison struct {
	Target           target
	CanvasStatus     int
	SnapshotStatus   int
	StatusMatch      bool
	BodyMatch        bool
	Error            error
	DurationCanvas   time.Duration
	DurationSnapshot time.Duration
}

func main() {
	var (
		canvasBase   string
		snapshotBase string
		token        string
		timeout      time.Duration
	)

	flag.StringVar(&canvasBase, "canvas-base", "http://localhost:8080", "Canvas-backed API base URL")
	flag.StringVar(&snapshotBase, "snapshot-base", "http://localhost:8081", "Snapshot-backed API base URL")
	flag.StringVar(&token, "token", os.Getenv("SESSION_TOKEN"), "Session bearer token for protected endpoints")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" {
		log.Println("warning: no session token provided, protected endpoints will return 401")
	}

	client := &http.Client{Timeout: timeout}
	var comparisons []comparison
	var breaking, optionalDiff int

	for _, t := range defaultTargets {
		comp := compareTarget(client, canvasBase, snapshotBase, token, t)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func compareTarget(client *http.Client, canvasBase, snapshotBase, token string, tgt target) comparison {
	comp := comparison{Target: tgt}
	canvasResp, canvasDur, canvasErr := performRequest(client, canvasBase, token, tgt)
	snapshotResp, snapshotDur, snapshotErr := performRequest(client, snapshotBase, token, tgt)
	comp.DurationCanvas = canvasDur
	comp.DurationSnapshot = snapshotDur

	if canvasErr != nil {
		comp.Error = fmt.Errorf("canvas request failed: %w", canvasErr)
		return comp
	}
	if snapshotErr != nil {
		comp.Error = fmt.Errorf("snapshot request failed: %w", snapshotErr)
		return comp
	}

	comp.CanvasStatus = canvasResp.StatusCode
	comp.SnapshotStatus = snapshotResp.StatusCode
	comp.StatusMatch = comp.CanvasStatus == comp.SnapshotStatus

	defer canvasResp.Body.Close()
	defer snapshotResp.Body.Close()

	canvasBody, err := io.ReadAll(canvasResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read canvas body: %w", err)
		return comp
	}
	snapshotBody, err := io.ReadAll(snapshotResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read snapshot body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(canvasBody, snapshotBody)

	return comp
}

func performRequest(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

// normalize strips volatile fields and collapses integral floats so that two
// semantically equal payloads compare equal.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range volatileFields {
			delete(val, k)
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Provider Parity Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] GET %s\n", status, res.Target.Path)
		fmt.Printf("  Canvas Status: %d (%s)\n", res.CanvasStatus, res.DurationCanvas)
		fmt.Printf("  Snapshot Status: %d (%s)\n", res.SnapshotStatus, res.DurationSnapshot)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
