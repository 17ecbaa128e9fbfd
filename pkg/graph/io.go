package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const verticesDirective = "vertices"

// ReadEdgeList parses whitespace separated "u v" lines. Blank lines and lines
// starting with '#' are skipped, except a "# vertices N" header which fixes the
// vertex count so trailing isolated vertices survive a round trip. Without the
// header the count is the largest identifier plus one.
func ReadEdgeList(r io.Reader) (*Graph, error) {
	scanner := bufio.NewScanner(r)
	declared := -1
	maxID := -1
	var edges []Edge

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(strings.TrimPrefix(line, "#"))
			if len(fields) == 2 && fields[0] == verticesDirective {
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: invalid vertex count %q", lineNum, fields[1])
				}
				declared = n
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected \"u v\", got %q", lineNum, line)
		}

		u, err := strconv.Atoi(parts[0])
		if err != nil || u < 0 {
			return nil, fmt.Errorf("line %d: invalid vertex %q", lineNum, parts[0])
		}
		v, err := strconv.Atoi(parts[1])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("line %d: invalid vertex %q", lineNum, parts[1])
		}

		edges = append(edges, Edge{U: u, V: v})
		maxID = max(maxID, u, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}

	n := maxID + 1
	if declared >= 0 {
		if declared < n {
			return nil, fmt.Errorf("declared %d vertices but edge list references vertex %d", declared, maxID)
		}
		n = declared
	}

	return FromEdges(n, edges)
}

// WriteEdgeList writes g in the format understood by ReadEdgeList
func WriteEdgeList(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "# %s %d\n", verticesDirective, g.NumVertices); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(bw, "%d %d\n", e.U, e.V); err != nil {
			return err
		}
	}

	return bw.Flush()
}
