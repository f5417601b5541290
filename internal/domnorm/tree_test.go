package domnorm

import "testing"

func TestParseProducesStableDOMPaths(t *testing.T) {
	html := `<html><body><p>one</p><p align="center"><b>باب الإدغام</b></p></body></html>`
	tree1, err := Parse("f.html", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tree2, err := Parse("f.html", []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var paths1, paths2 []string
	Walk(tree1.Root, func(n *Node) { paths1 = append(paths1, n.DOMPath) })
	Walk(tree2.Root, func(n *Node) { paths2 = append(paths2, n.DOMPath) })

	if len(paths1) != len(paths2) {
		t.Fatalf("node count differs: %d vs %d", len(paths1), len(paths2))
	}
	for i := range paths1 {
		if paths1[i] != paths2[i] {
			t.Fatalf("dom_path not stable at %d: %q vs %q", i, paths1[i], paths2[i])
		}
	}
}

func TestIsCenteredDetectsAlignAndStyleAndAncestor(t *testing.T) {
	tree, err := Parse("f.html", []byte(`<html><body>
		<p align="center" id="a">x</p>
		<p style="text-align:center" id="b">y</p>
		<center><p id="c">z</p></center>
		<p id="d">plain</p>
	</body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[string]bool{}
	Walk(tree.Root, func(n *Node) {
		if id, ok := n.Attrs["id"]; ok {
			got[id] = n.IsCentered()
		}
	})
	for _, id := range []string{"a", "b", "c"} {
		if !got[id] {
			t.Errorf("node %q expected centered", id)
		}
	}
	if got["d"] {
		t.Errorf("node %q unexpectedly centered", "d")
	}
}

func TestTagNoiseMarksPageheadByRepetition(t *testing.T) {
	page := func() string {
		return `<div class="PageHead">تفسير ابن كثير</div><p>body text goes here and is long enough to be prose</p>`
	}
	var trees []*Tree
	for i := 0; i < 5; i++ {
		tr, err := Parse("f.html", []byte("<html><body>"+page()+"</body></html>"))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		trees = append(trees, tr)
	}
	TagNoise(trees)

	for _, tr := range trees {
		var found bool
		Walk(tr.Root, func(n *Node) {
			if n.HasClass("PageHead") && n.Noise == NoisePagehead {
				found = true
			}
		})
		if !found {
			t.Fatalf("expected repeated PageHead node to be tagged pagehead")
		}
	}
}

func TestDeriveDropsPageheadKeepsBody(t *testing.T) {
	tree, err := Parse("f.html", []byte(`<html><body><div class="PageHead">مكرر</div><p>نص الفصل</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	Walk(tree.Root, func(n *Node) {
		if n.HasClass("PageHead") {
			n.Noise = NoisePagehead
		}
	})
	d := Derive("f.html", tree)
	if want := "نص الفصل"; !contains(d.Text, want) {
		t.Fatalf("derived text missing body: %q", d.Text)
	}
	if contains(d.Text, "مكرر") {
		t.Fatalf("derived text should drop pagehead: %q", d.Text)
	}
}

func TestDeriveOffsetsStayAlignedAcrossBlankLineCollapse(t *testing.T) {
	// A node whose own text contains a run of blank lines forces the
	// blank-line collapse to shift bytes; every recorded Offset/Footnote
	// span must still point at the right text in the final d.Text.
	tree, err := Parse("f.html", []byte(`<html><body><p>مقدمة



زائدة</p><p class="footnote">حاشية</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	Walk(tree.Root, func(n *Node) {
		if n.HasClass("footnote") {
			n.Noise = NoiseFootnote
		}
	})
	d := Derive("f.html", tree)

	for path, span := range d.Offsets {
		if span.Start < 0 || span.End > len(d.Text) || span.Start > span.End {
			t.Fatalf("offset for %s out of bounds: %+v (len %d)", path, span, len(d.Text))
		}
	}
	for _, sp := range d.Footnotes {
		if got := d.Text[sp.Start:sp.End]; !contains(got, "حاشية") {
			t.Fatalf("footnote span does not point at footnote text: %q", got)
		}
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
