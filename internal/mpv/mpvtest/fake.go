// Package mpvtest provides a fake mpv executable for tests.
package mpvtest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// script mimics the parts of mpv the factory relies on. It records each
// playback invocation in <script>.runs, echoes numbered commands read from
// the input file and exits on quit. Targets ending in "exit3" exit
// immediately with code 3, targets ending in "hang" ignore quit.
const script = `#!/bin/sh
input=
target=
for arg in "$@"; do
	case "$arg" in
	-h) echo "Usage: mpv [options] [url|path/]filename"; exit 1 ;;
	--input-file=*) input="${arg#--input-file=}" ;;
	esac
	target="$arg"
done
echo "$*" >> "$0.runs"
case "$target" in
*exit3) exit 3 ;;
*hang) trap '' INT TERM HUP; while :; do sleep 0.05; done ;;
esac
if [ "$input" = /dev/stdin ]; then
	n=0
	while read -r line; do
		n=$((n+1))
		echo "$n $line"
		[ "$line" = quit ] && exit 0
	done
	exit 0
fi
while ! grep -q '^quit' "$input"; do sleep 0.02; done
n=0
while read -r line; do
	n=$((n+1))
	echo "$n $line"
done < "$input"
exit 0
`

// WriteFake writes the fake player into dir and returns its path.
func WriteFake(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "mpv")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake mpv: %v", err)
	}
	return path
}

// Runs returns the recorded playback invocations of the fake player at exe,
// one line of arguments per run.
func Runs(t testing.TB, exe string) []string {
	t.Helper()
	data, err := os.ReadFile(exe + ".runs")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
