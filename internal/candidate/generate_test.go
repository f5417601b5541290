package candidate

import (
	"testing"

	"github.com/rayanino/islamic-book-processor/internal/domnorm"
)

func TestGenerateEmitsCandidateForCenteredBoldHeading(t *testing.T) {
	tree, err := domnorm.Parse("f.html", []byte(`<html><body>
		<hr/>
		<p align="center"><b>باب الإدغام</b></p>
		<p>نص عادي بدون أي تمييز</p>
	</body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	derived := domnorm.Derive("f.html", tree)
	cands := Generate("book1", 0, "f.html", tree, derived)

	var found bool
	for _, c := range cands {
		if c.Text == "باب الإدغام" {
			found = true
			if !c.Signature.Centered {
				t.Errorf("expected signature.Centered = true")
			}
			if !c.Signature.Bold {
				t.Errorf("expected signature.Bold = true")
			}
		}
	}
	if !found {
		t.Fatalf("expected candidate for heading text, got %d candidates: %+v", len(cands), cands)
	}
}

func TestCandidateIDIsDeterministic(t *testing.T) {
	tree, err := domnorm.Parse("f.html", []byte(`<html><body><p align="center">باب</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	derived := domnorm.Derive("f.html", tree)
	c1 := Generate("book1", 0, "f.html", tree, derived)
	c2 := Generate("book1", 0, "f.html", tree, derived)
	if len(c1) == 0 || len(c2) == 0 {
		t.Fatalf("expected at least one candidate")
	}
	if c1[0].CandidateID != c2[0].CandidateID {
		t.Fatalf("candidate_id not deterministic: %s != %s", c1[0].CandidateID, c2[0].CandidateID)
	}
}

func TestOrdinaryTextIsNotACandidate(t *testing.T) {
	tree, err := domnorm.Parse("f.html", []byte(`<html><body><p>مجرد نص عادي بلا أي تمييز إطلاقا هنا</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	derived := domnorm.Derive("f.html", tree)
	cands := Generate("book1", 0, "f.html", tree, derived)
	if len(cands) != 0 {
		t.Fatalf("expected no candidates for plain text, got %+v", cands)
	}
}
