package predict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseWords reads a word list with one word per line, optionally followed
// by its rank. Words without a rank are ranked by their position in the
// list. Blank lines and lines starting with '#' are skipped. Words are
// lower-cased.
func ParseWords(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		e := Entry{Word: strings.ToLower(fields[0]), Rank: len(entries) + 1}
		if len(fields) > 1 {
			rank, err := strconv.Atoi(fields[1])
			if err != nil || rank < 1 {
				return nil, fmt.Errorf("line %d: invalid rank %q", line, fields[1])
			}
			e.Rank = rank
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return entries, nil
}

// ParseWordsFile reads the word list at path.
func ParseWordsFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseWords(f)
}
