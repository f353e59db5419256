package output

import (
	"strings"

	"github.com/crewhq/crew/internal/models"
)

// TreeNode represents a node in a tree structure for rendering.
// Leaf nodes carry a task status; grouping nodes (users) leave it empty.
type TreeNode struct {
	ID       string
	Title    string
	Status   models.TaskStatus
	Children []TreeNode
}

// TreeRenderOptions configures tree rendering behavior
type TreeRenderOptions struct {
	MaxDepth   int  // 0 = unlimited
	ShowStatus bool // Whether to show status indicator
}

// RenderTree renders multiple root nodes joined by newlines
func RenderTree(roots []TreeNode, opts TreeRenderOptions) string {
	return strings.Join(RenderTreeLines(roots, opts), "\n")
}

// RenderTreeLines renders multiple root nodes and returns individual lines
// Useful for embedding trees in other output
func RenderTreeLines(roots []TreeNode, opts TreeRenderOptions) []string {
	var lines []string
	for _, root := range roots {
		label := root.Title
		if root.ID != "" {
			label = root.ID + ": " + root.Title
		}
		lines = append(lines, label)
		lines = append(lines, renderTreeNodes(root.Children, opts, 1, "")...)
	}
	return lines
}

// renderTreeNodes recursively renders tree nodes
func renderTreeNodes(nodes []TreeNode, opts TreeRenderOptions, depth int, prefix string) []string {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return nil
	}

	var lines []string

	for i, node := range nodes {
		isLast := i == len(nodes)-1

		connector := "├── " // ├──
		if isLast {
			connector = "└── " // └──
		}

		var parts []string
		if opts.ShowStatus {
			parts = append(parts, FormatStatus(node.Status))
		}
		if node.ID != "" {
			parts = append(parts, node.ID+":")
		}
		parts = append(parts, node.Title)

		lines = append(lines, prefix+connector+strings.Join(parts, " "))

		childPrefix := prefix
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   " // │
		}

		lines = append(lines, renderTreeNodes(node.Children, opts, depth+1, childPrefix)...)
	}

	return lines
}
