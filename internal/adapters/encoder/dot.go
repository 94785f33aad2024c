package encoder

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

// dotNamespace scopes node IDs so the same tree always renders the same graph.
var dotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("canopy:dot"))

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

type dotEncoder struct{}

// Encode renders the tree as a left-to-right Graphviz digraph.
func (dotEncoder) Encode(w io.Writer, report domain.Report) error {
	res, err := report.Finish()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph RepositoryStructure {")
	fmt.Fprintln(bw, `    node [shape=box, style=filled, color="#ADD8E6"];`)
	fmt.Fprintln(bw, "    rankdir=LR;")

	writeDirDOT(bw, res.Root, "")

	if report.IncludeSummary && res.Summary != nil {
		summaryID := dotID("summary")
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "    subgraph cluster_summary {")
		fmt.Fprintln(bw, `        label="Summary";`)
		fmt.Fprintln(bw, "        color=lightgrey;")
		for _, f := range summaryFields(res.Summary) {
			fmt.Fprintf(bw, "        \"%s_%s\" [label=\"%s: %s\", shape=note, color=\"#D3D3D3\"];\n",
				summaryID, dotEscaper.Replace(f.Key), dotEscaper.Replace(f.Key), dotEscaper.Replace(f.Value))
		}
		fmt.Fprintln(bw, "    }")
	}
	fmt.Fprintln(bw, "}")

	if err := bw.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write dot")
	}
	return nil
}

func writeDirDOT(w io.Writer, d *domain.DirectoryNode, parentID string) {
	id := dotID(d.Path.Rel)
	fmt.Fprintf(w, "    \"%s\" [label=\"%s\", shape=folder, color=\"#FFA500\"];\n", id, dotEscaper.Replace(d.Name))
	if parentID != "" {
		fmt.Fprintf(w, "    \"%s\" -> \"%s\";\n", parentID, id)
	}
	for _, child := range d.Children {
		switch n := child.(type) {
		case *domain.DirectoryNode:
			writeDirDOT(w, n, id)
		case *domain.FileEntry:
			fileID := dotID(n.Path.Rel)
			fmt.Fprintf(w, "    \"%s\" [label=\"%s\", shape=note, color=\"#90EE90\"];\n", fileID, dotEscaper.Replace(n.Name))
			fmt.Fprintf(w, "    \"%s\" -> \"%s\";\n", id, fileID)
		}
	}
}

func dotID(rel string) string {
	return uuid.NewSHA1(dotNamespace, []byte(rel)).String()
}
