// Package domnorm implements C2 (§4.2): tolerant HTML parsing into a
// structurally addressed node tree, with noise regions (pagehead,
// page_marker, footnote, metadata) annotated rather than removed.
package domnorm

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/rayanino/islamic-book-processor/internal/ibperr"
)

// NoiseKind tags a Node as one of §4.2's noise regions. The zero value
// means "not noise" (ordinary content).
type NoiseKind string

const (
	NoisePagehead   NoiseKind = "pagehead"
	NoisePageMarker NoiseKind = "page_marker"
	NoiseFootnote   NoiseKind = "footnote"
	NoiseMetadata   NoiseKind = "metadata"
)

// Node is one element in the normalized, addressable tree.
type Node struct {
	raw *html.Node

	Tag      string
	Attrs    map[string]string
	Text     string // direct text content, concatenated
	DOMPath  string // stable "/tag[index]/..." address
	Index    int    // position among same-tag siblings under the same parent
	Children []*Node
	Parent   *Node

	StartOffset int // byte offset of this node's first text content in the file's raw bytes
	EndOffset   int

	Noise      NoiseKind
	PageIndex  *int
}

// Tree is the normalized document for one source file.
type Tree struct {
	Root      *Node
	PageIndex []int // page_marker page indices encountered, in document order
}

// Parse tolerantly parses raw HTML bytes into a Tree. dom_path is stable
// across reruns on identical bytes because html.Parse's node ordering is
// deterministic and Index is computed purely from sibling tag order.
func Parse(file string, raw []byte) (*Tree, error) {
	root, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, ibperr.New(ibperr.KindParse, file, err)
	}

	offset := 0
	var convert func(n *html.Node, parent *Node, path string, siblingIdx map[string]int) *Node
	convert = func(n *html.Node, parent *Node, path string, siblingIdx map[string]int) *Node {
		if n.Type == html.TextNode {
			offset += len(n.Data)
			if parent != nil {
				parent.Text += n.Data
			}
			return nil
		}
		if n.Type != html.ElementNode {
			var result *Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				child := convert(c, parent, path, siblingIdx)
				if child != nil && parent != nil {
					parent.Children = append(parent.Children, child)
				}
				if result == nil {
					result = child
				}
			}
			return result
		}

		idx := siblingIdx[n.Data]
		siblingIdx[n.Data] = idx + 1

		node := &Node{
			Tag:         n.Data,
			Attrs:       attrMap(n),
			DOMPath:     fmt.Sprintf("%s/%s[%d]", path, n.Data, idx),
			Index:       idx,
			Parent:      parent,
			StartOffset: offset,
			raw:         n,
		}

		childSiblingIdx := map[string]int{}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child := convert(c, node, node.DOMPath, childSiblingIdx)
			if child != nil {
				node.Children = append(node.Children, child)
			}
		}
		node.EndOffset = offset
		return node
	}

	rootNode := convert(root, nil, "", map[string]int{})
	if rootNode == nil {
		rootNode = &Node{Tag: "html", DOMPath: "/html[0]"}
	}
	return &Tree{Root: rootNode}, nil
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

// Walk visits every element node in document order (depth-first), matching
// the candidate emission order required by §5 ("file_index, then dom_path
// depth-first").
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// ClassTokens returns the sorted, deduplicated class list of a node.
func (n *Node) ClassTokens() []string {
	if n == nil {
		return nil
	}
	raw := n.Attrs["class"]
	if raw == "" {
		return nil
	}
	fields := strings.Fields(raw)
	seen := map[string]struct{}{}
	var out []string
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// HasClass reports whether any class token equals or contains substr.
func (n *Node) HasClass(substr string) bool {
	for _, c := range n.ClassTokens() {
		if strings.Contains(strings.ToLower(c), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

// IsCentered reports centering via align=center, inline text-align:center,
// an ancestor <center>, or the align/text-align of the nearest enclosing
// block element, which ends the ancestor search (§4.3).
func (n *Node) IsCentered() bool {
	if n == nil {
		return false
	}
	if strings.EqualFold(n.Attrs["align"], "center") {
		return true
	}
	if style := n.Attrs["style"]; style != "" {
		s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(s, "text-align:center") {
			return true
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == "center" {
			return true
		}
		if isBlockTag(p.Tag) {
			if strings.EqualFold(p.Attrs["align"], "center") {
				return true
			}
			s := strings.ToLower(strings.ReplaceAll(p.Attrs["style"], " ", ""))
			return strings.Contains(s, "text-align:center")
		}
	}
	return false
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "td", "tr", "table", "body", "html", "li", "ul", "ol", "blockquote":
		return true
	}
	return false
}

// AncestorChain returns up to n nearest ancestor tag names, nearest first.
func (node *Node) AncestorChain(n int) []string {
	var out []string
	for p := node.Parent; p != nil && len(out) < n; p = p.Parent {
		out = append(out, p.Tag)
	}
	return out
}
