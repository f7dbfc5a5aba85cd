package source

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadCategoryOrder reads one category per line, e.g. an ordinal scale from low to high.
// Blank lines and lines starting with '#' are skipped.
func LoadCategoryOrder(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only order file.
			_ = cerr
		}
	}()

	var order []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		order = append(order, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("category order is empty")
	}
	return order, nil
}
