package adb

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/TinkerUp/adb-link/types/models"
)

// ParseForwardList parses `adb forward --list` output:
//
//	1WMHH8153B0437 tcp:9943 tcp:9943
func ParseForwardList(out string) []models.ForwardRule {
	var rules []models.ForwardRule

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		rules = append(rules, models.ForwardRule{Serial: fields[0], Local: fields[1], Remote: fields[2]})
	}

	return rules
}

// ParsePackageListed reports whether `pm list packages <id>` printed the exact
// package. pm matches by substring, so "alvr.client" also lists "alvr.client.dev".
func ParsePackageListed(out string, packageID string) bool {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		name, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "package:")
		if ok && name == packageID {
			return true
		}
	}
	return false
}

// ParsePackagePath returns the first apk path from `pm path <id>`. Split apks
// list several paths; base.apk comes first.
func ParsePackagePath(out string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		path, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "package:")
		if ok && path != "" {
			return path, true
		}
	}
	return "", false
}

// ParseDigest extracts the hex digest from `sha1sum -b <path>` output
// ("<digest> *<path>").
func ParseDigest(out string) (string, bool) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", false
	}
	digest := fields[0]
	for _, r := range digest {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", false
		}
	}
	return digest, true
}

// ParsePID parses `pidof <id>` output. pidof prints nothing when the process
// is not running; with several matches the first pid wins.
func ParsePID(out string) (int, bool, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, false, nil
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false, err
	}
	return pid, true, nil
}

func ParseActivityResumed(out string) bool {
	return strings.Contains(out, "mResumed=true")
}

// shellFailure reports whether pm/am style output signals an error. These
// tools exit 0 over the adb shell protocol even when they fail.
func shellFailure(out string) bool {
	return strings.Contains(out, "Failure") ||
		strings.Contains(out, "Exception") ||
		strings.Contains(out, "Error:")
}
