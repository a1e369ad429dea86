// ABOUTME: GraphViz rendering of the transaction pipeline
// ABOUTME: Stages become nodes sized by count; optionally each transaction hangs off its stage
package viz

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

// GraphOptions controls what the pipeline graph includes.
type GraphOptions struct {
	// Detailed adds one node per transaction.
	Detailed bool
	Format   graphviz.Format
}

// GeneratePipelineGraph returns the pipeline as DOT source.
func GeneratePipelineGraph(ctx context.Context, txs []models.Transaction, detailed bool) (string, error) {
	var buf bytes.Buffer
	if err := RenderPipelineGraph(ctx, &buf, txs, GraphOptions{Detailed: detailed, Format: graphviz.XDOT}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPipelineGraph writes the pipeline graph to w in opts.Format.
func RenderPipelineGraph(ctx context.Context, w io.Writer, txs []models.Transaction, opts GraphOptions) error {
	if opts.Format == "" {
		opts.Format = graphviz.XDOT
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Transaction Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	stats := stageStats(txs)
	nodes := make(map[string]*cgraph.Node)
	for _, stage := range engine.Stages() {
		node, err := graph.CreateNodeByName("stage_" + stage.Name)
		if err != nil {
			return fmt.Errorf("failed to create stage node: %w", err)
		}
		st := stats[stage.Name]
		label := fmt.Sprintf("%s\n%d", stage.Label, st.Count)
		if st.Volume > 0 {
			label += fmt.Sprintf(" ($%s)", humanize.Comma(st.Volume/100))
		}
		node.SetLabel(label)
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(stageColor(stage.Name, st.Count))
		nodes[stage.Name] = node
	}

	var prev *cgraph.Node
	for _, stage := range engine.Stages() {
		if stage.Name == models.StageCancelled {
			continue
		}
		node := nodes[stage.Name]
		if prev != nil {
			if _, err := graph.CreateEdgeByName("next_"+stage.Name, prev, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		prev = node
	}
	cancel, err := graph.CreateEdgeByName("cancel", nodes[models.StagePending], nodes[models.StageCancelled])
	if err != nil {
		return fmt.Errorf("failed to create edge: %w", err)
	}
	cancel.SetStyle("dashed")
	cancel.SetLabel("cancel")

	if opts.Detailed {
		for _, tx := range txs {
			stageNode, ok := nodes[tx.Status]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName("tx_" + tx.ID.String()[:8])
			if err != nil {
				return fmt.Errorf("failed to create transaction node: %w", err)
			}
			label := tx.PropertyAddress
			if tx.ClientName != "" {
				label += "\n" + tx.ClientName
			}
			node.SetLabel(label)
			node.SetShape("note")
			edge, err := graph.CreateEdgeByName("in_"+tx.ID.String()[:8], node, stageNode)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
			edge.SetDir("none")
		}
	}

	if err := gv.Render(ctx, graph, opts.Format, w); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	return nil
}

func stageColor(stage string, count int) string {
	switch {
	case stage == models.StageClosed:
		return "palegreen"
	case stage == models.StageCancelled:
		return "lightgray"
	case count == 0:
		return "white"
	default:
		return "lightyellow"
	}
}
