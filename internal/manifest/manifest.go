// Package manifest parses the newline-delimited "IOVs" text format: one
// "<since> <child-token>" record per line, consumed in file order.
package manifest

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/gitconddb/gitconddb/internal/iov"
)

// ErrManifestParse is wrapped into every malformed-line error, embedding
// the offending line number and content.
var ErrManifestParse = fmt.Errorf("manifest: parse error")

type record struct {
	since iov.TimePoint
	key   string
}

// Entry pairs a manifest line's child token with the IOV derived for it
// once the following record's since (or MAX) is known.
type Entry struct {
	IOV   iov.IOV
	Child string
}

func parseLines(blob string) ([]record, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, fmt.Errorf("%w: empty manifest", ErrManifestParse)
	}

	var recs []record
	scanner := bufio.NewScanner(strings.NewReader(blob))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: line %d: missing separator: %q", ErrManifestParse, lineNo, line)
		}
		sinceStr, token := line[:sp], line[sp+1:]
		since, err := strconv.ParseUint(sinceStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid since %q: %v", ErrManifestParse, lineNo, sinceStr, err)
		}
		if token == "" {
			return nil, fmt.Errorf("%w: line %d: empty child token", ErrManifestParse, lineNo)
		}
		recs = append(recs, record{since: iov.TimePoint(since), key: token})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrManifestParse)
	}
	return recs, nil
}

// PickEntry implements spec §4.3(a): scan blob in file order and return
// the (child token, IOV) valid for t, intersected with bounds. An empty
// token and invalid IOV are returned when t falls outside bounds or no
// record applies.
func PickEntry(blob string, t iov.TimePoint, bounds iov.IOV, reduce bool) (string, iov.IOV, error) {
	if !bounds.Contains(t) {
		return "", iov.Invalid(), nil
	}

	recs, err := parseLines(blob)
	if err != nil {
		return "", iov.Invalid(), err
	}

	var (
		key         string
		since       iov.TimePoint
		until       iov.TimePoint
		haveUntil   bool
		haveCurrent bool
	)

	for _, r := range recs {
		if reduce && haveCurrent && r.key == key {
			continue
		}
		if r.since > t {
			until = r.since
			haveUntil = true
			break
		}
		key = r.key
		since = r.since
		haveCurrent = true
	}

	if !haveCurrent {
		// t is within bounds but smaller than every record's since; no
		// candidate was ever set.
		return "", iov.Invalid(), nil
	}
	if !haveUntil {
		until = iov.MaxTime
	}

	result := iov.IOV{Since: since, Until: until}
	result.Cut(bounds)
	return key, result, nil
}

// ParseAll implements spec §4.3(b): the full ordered sequence of
// (IOV, child token) entries, each Until taken from the following record's
// Since (MAX for the last).
func ParseAll(blob string) ([]Entry, error) {
	recs, err := parseLines(blob)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(recs))
	for i, r := range recs {
		until := iov.MaxTime
		if i+1 < len(recs) {
			until = recs[i+1].since
		}
		entries[i] = Entry{IOV: iov.IOV{Since: r.since, Until: until}, Child: r.key}
	}
	return entries, nil
}
