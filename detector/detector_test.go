package detector

import (
	"reflect"
	"strings"
	"testing"

	"github.com/brunobiangulo/golegis/article"
)

func newDefault(t *testing.T) *Detector {
	t.Helper()
	d, err := New(Config{})
	if err != nil {
		t.Fatalf("creating detector: %v", err)
	}
	return d
}

// ---------------------------------------------------------------------------
// Numbered-article strategy
// ---------------------------------------------------------------------------

func TestDetectNumberedArticles(t *testing.T) {
	text := "Article 1.- Le mariage est l'union d'un homme et d'une femme.\n" +
		"Article 2.- Les futurs époux doivent consentir au mariage.\n"

	cands, strategy := newDefault(t).DetectWithStrategy(text)
	if strategy != StrategyNumberedArticle {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyNumberedArticle)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].MarkerText != "Article 1.-" {
		t.Errorf("marker[0] = %q, want %q", cands[0].MarkerText, "Article 1.-")
	}
	if cands[0].Body != "Le mariage est l'union d'un homme et d'une femme." {
		t.Errorf("body[0] = %q", cands[0].Body)
	}
	if cands[1].StartOffset != strings.Index(text, "Article 2") {
		t.Errorf("offset[1] = %d, want %d", cands[1].StartOffset, strings.Index(text, "Article 2"))
	}
	if cands[1].Kind != article.KindArticle {
		t.Errorf("kind = %q, want %q", cands[1].Kind, article.KindArticle)
	}
}

func TestDetectHeaderLineTitle(t *testing.T) {
	text := "Article 5 – Du divorce\n" +
		"Le divorce est prononcé par le juge.\n" +
		"Article 6.- Les époux se doivent mutuellement\n" +
		"fidélité, secours et assistance.\n" +
		"Article 7 : De la séparation de corps\n" +
		"TITRE III - DES SUCCESSIONS\n"

	cands := newDefault(t).Detect(text)
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	if cands[0].MarkerText != "Article 5 – Du divorce" {
		t.Errorf("marker[0] = %q", cands[0].MarkerText)
	}
	if cands[0].Body != "Le divorce est prononcé par le juge." {
		t.Errorf("body[0] = %q", cands[0].Body)
	}
	// Wrapped body line, not a heading.
	if cands[1].MarkerText != "Article 6.-" {
		t.Errorf("marker[1] = %q", cands[1].MarkerText)
	}
	// Nothing follows before the structural header: the line is the body.
	if cands[2].MarkerText != "Article 7 :" || cands[2].Body != "De la séparation de corps" {
		t.Errorf("got marker %q body %q", cands[2].MarkerText, cands[2].Body)
	}
}

func TestDetectConcatenatedArticlesWithSeparators(t *testing.T) {
	text := "Article 1.- Le mariage est l'union...Article 2.- Les futurs époux..."
	cands := newDefault(t).Detect(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[1].MarkerText != "Article 2.-" {
		t.Errorf("marker[1] = %q", cands[1].MarkerText)
	}
}

func TestDetectIgnoresInSentenceReferences(t *testing.T) {
	text := "Article 3 Les dispositions de l'article 12 du présent code s'appliquent.\n"
	cands := newDefault(t).Detect(text)
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(cands), cands)
	}
	if !strings.Contains(cands[0].Body, "l'article 12") {
		t.Errorf("reference should stay in the body, got %q", cands[0].Body)
	}
}

func TestDetectMarkerVariants(t *testing.T) {
	text := "Art. 1er.- Texte du premier article.\n" +
		"ARTICLE 2 bis : Texte de l'article bis.\n" +
		"Art. 3.1 - Texte du sous-article.\n" +
		"Article premier Texte sans séparateur.\n"

	cands := newDefault(t).Detect(text)
	want := []string{"Art. 1er.-", "ARTICLE 2 bis :", "Art. 3.1 -", "Article premier"}
	if len(cands) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(cands))
	}
	for i, w := range want {
		if cands[i].MarkerText != w {
			t.Errorf("marker[%d] = %q, want %q", i, cands[i].MarkerText, w)
		}
	}
}

func TestDetectKeepsEmptyBodies(t *testing.T) {
	text := "Article 1.-\nArticle 2.- Texte suffisant pour un article.\n"
	cands := newDefault(t).Detect(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Body != "" {
		t.Errorf("expected empty body, got %q", cands[0].Body)
	}
}

func TestDetectShortBodyCandidate(t *testing.T) {
	cands := newDefault(t).Detect("Art. 9.-ok")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].MarkerText != "Art. 9.-" || cands[0].Body != "ok" {
		t.Errorf("got marker %q body %q", cands[0].MarkerText, cands[0].Body)
	}
}

func TestDetectTruncatesAtStructuralHeader(t *testing.T) {
	text := "Article 5.- Dernier article du livre premier.\n" +
		"LIVRE II - DES CONTRATS\n" +
		"Texte introductif du livre deux.\n" +
		"Article 6.- Premier article du livre deux.\n"

	cands := newDefault(t).Detect(text)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Body != "Dernier article du livre premier." {
		t.Errorf("body not truncated at LIVRE header: %q", cands[0].Body)
	}

	spanning, err := New(Config{SpanStructural: true})
	if err != nil {
		t.Fatalf("creating detector: %v", err)
	}
	cands = spanning.Detect(text)
	if !strings.Contains(cands[0].Body, "LIVRE II") {
		t.Errorf("expected body to span the header, got %q", cands[0].Body)
	}
}

// ---------------------------------------------------------------------------
// Fallback ladder
// ---------------------------------------------------------------------------

func TestDetectFallsBackToStructuralSections(t *testing.T) {
	text := "PREAMBULE\n" +
		"Le peuple sénégalais proclame son attachement aux droits fondamentaux.\n" +
		"TITRE PREMIER - DE L'ETAT ET DE LA SOUVERAINETE\n" +
		"La République du Sénégal est laïque, démocratique et sociale.\n" +
		"TITRE II - DES LIBERTES PUBLIQUES\n" +
		"Les libertés publiques sont garanties.\n"

	cands, strategy := newDefault(t).DetectWithStrategy(text)
	if strategy != StrategyStructural {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyStructural)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	if cands[0].MarkerText != "PREAMBULE" {
		t.Errorf("marker[0] = %q", cands[0].MarkerText)
	}
	if strings.Contains(cands[0].Body, "TITRE") {
		t.Errorf("preamble should end at the first title, got %q", cands[0].Body)
	}
	if cands[1].Level != 2 || cands[1].Kind != article.KindSection {
		t.Errorf("cand[1] level=%d kind=%q", cands[1].Level, cands[1].Kind)
	}
	if strings.Contains(cands[1].Body, "LIBERTES") {
		t.Errorf("title body should stop at the next title, got %q", cands[1].Body)
	}
}

func TestStructuralSectionsNest(t *testing.T) {
	text := "LIVRE I - DES PERSONNES\n" +
		"TITRE I - DE LA PERSONNALITE\n" +
		"Texte du titre un.\n" +
		"TITRE II - DU DOMICILE\n" +
		"Texte du titre deux.\n" +
		"LIVRE II - DES BIENS\n" +
		"Texte du livre deux.\n"

	cands := (&StructuralStrategy{}).Detect(text)
	if len(cands) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(cands))
	}
	if !strings.Contains(cands[0].Body, "TITRE II") || strings.Contains(cands[0].Body, "LIVRE II") {
		t.Errorf("LIVRE I body should contain its titles only: %q", cands[0].Body)
	}
}

func TestDetectFallsBackToNumberedParagraphs(t *testing.T) {
	text := "1. Dispositions générales.\n" +
		"Le présent règlement s'applique à tous.\n" +
		"2. Champ d'application.\n" +
		"Il couvre tout le territoire national.\n"

	cands, strategy := newDefault(t).DetectWithStrategy(text)
	if strategy != StrategyParagraph {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyParagraph)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].MarkerText != "1." {
		t.Errorf("marker[0] = %q", cands[0].MarkerText)
	}
	if cands[1].Body != "Champ d'application.\nIl couvre tout le territoire national." {
		t.Errorf("body[1] = %q", cands[1].Body)
	}
}

func TestDetectSingleSentenceParagraphs(t *testing.T) {
	text := "1. Toute personne a droit à la vie et à la sécurité.\n" +
		"2. Nul ne peut être soumis à la torture ni à des traitements cruels.\n"

	cands, strategy := newDefault(t).DetectWithStrategy(text)
	if strategy != StrategyParagraph {
		t.Fatalf("strategy = %q, want %q", strategy, StrategyParagraph)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].MarkerText != "1." || cands[0].Body != "Toute personne a droit à la vie et à la sécurité." {
		t.Errorf("got marker %q body %q", cands[0].MarkerText, cands[0].Body)
	}
	if cands[1].StartOffset != strings.Index(text, "2.") {
		t.Errorf("offset[1] = %d, want %d", cands[1].StartOffset, strings.Index(text, "2."))
	}
}

func TestDetectMinCandidates(t *testing.T) {
	text := "LIVRE I\n" +
		"Article 1.- Un seul article ici present.\n" +
		"LIVRE II\n" +
		"Du texte sans article.\n"

	d, err := New(Config{MinCandidates: 2})
	if err != nil {
		t.Fatalf("creating detector: %v", err)
	}
	_, strategy := d.DetectWithStrategy(text)
	if strategy != StrategyStructural {
		t.Errorf("strategy = %q, want %q", strategy, StrategyStructural)
	}
}

func TestDetectNothing(t *testing.T) {
	cands, strategy := newDefault(t).DetectWithStrategy("du texte libre sans aucune structure")
	if cands != nil || strategy != "" {
		t.Errorf("expected no candidates, got %d (%q)", len(cands), strategy)
	}
	if got := newDefault(t).Detect("   "); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

func TestDetectDeterministic(t *testing.T) {
	text := "Article 1.- Premier.\nArticle 2.- Second.\nTITRE II\nArticle 3.- Troisième.\n"
	d := newDefault(t)
	first := d.Detect(text)
	for i := 0; i < 5; i++ {
		if got := d.Detect(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	if _, err := New(Config{Strategies: []string{"regex_magic"}}); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestCustomStrategyOrder(t *testing.T) {
	text := "TITRE I\nArticle 1.- Texte de l'article premier.\n"
	d, err := New(Config{Strategies: []string{StrategyStructural, StrategyNumberedArticle}})
	if err != nil {
		t.Fatalf("creating detector: %v", err)
	}
	if _, strategy := d.DetectWithStrategy(text); strategy != StrategyStructural {
		t.Errorf("strategy = %q, want %q", strategy, StrategyStructural)
	}
}

// ---------------------------------------------------------------------------
// Header helpers
// ---------------------------------------------------------------------------

func TestHeaderLevel(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"LIVRE I - DES INFRACTIONS", 1},
		{"PRÉAMBULE", 1},
		{"TITRE II - DES CONTRATS", 2},
		{"CHAPITRE PREMIER", 3},
		{"SECTION 2 - DES PREUVES", 4},
		{"Titre du contrat", 0},
		{"LIVRET DE FAMILLE", 0},
	}
	for _, tt := range tests {
		if got := HeaderLevel(tt.line); got != tt.want {
			t.Errorf("HeaderLevel(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
