package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/golegis/article"
)

// Difficulty levels for evaluation datasets.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Dataset is a collection of extraction cases with their expected output.
type Dataset struct {
	Name       string `json:"name" yaml:"name"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
	Cases      []Case `json:"cases" yaml:"cases"`
}

// Case is one document and what extraction should find in it.
type Case struct {
	Name     string           `json:"name" yaml:"name"`
	Document article.Document `json:"document" yaml:"document"`
	// TextFile is read into Document.Text when the text is not inline.
	TextFile string `json:"text_file,omitempty" yaml:"text_file,omitempty"`
	// Text is the inline document text. yaml cannot fill Document.Text.
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Expect Expect `json:"expect" yaml:"expect"`
}

// Expect is the ground truth of a case.
type Expect struct {
	Numbers  []string `json:"numbers" yaml:"numbers"`                       // article numbers, in order
	Category string   `json:"category,omitempty" yaml:"category,omitempty"` // expected for every article
	Strategy string   `json:"strategy,omitempty" yaml:"strategy,omitempty"` // winning detection strategy
}

// LoadDataset reads a YAML dataset. text_file paths are resolved against
// the dataset's directory.
func LoadDataset(path string) (Dataset, error) {
	var ds Dataset
	data, err := os.ReadFile(path)
	if err != nil {
		return ds, fmt.Errorf("reading dataset: %w", err)
	}
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return ds, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range ds.Cases {
		c := &ds.Cases[i]
		if c.Text != "" {
			c.Document.Text = c.Text
		}
		if c.TextFile != "" {
			p := c.TextFile
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			text, err := os.ReadFile(p)
			if err != nil {
				return ds, fmt.Errorf("case %q: %w", c.Name, err)
			}
			c.Document.Text = string(text)
		}
		if c.Document.SourceID == "" {
			c.Document.SourceID = strings.ReplaceAll(strings.ToLower(c.Name), " ", "_")
		}
	}
	return ds, nil
}

// BuiltinDataset returns cases drawn from Senegalese legal texts covering
// the detection strategies and the classification rules.
func BuiltinDataset() Dataset {
	charter := strings.Repeat("Les droits et libertés fondamentaux sont garantis par l'Etat. ", 3)
	return Dataset{
		Name:       "Senegalese legal corpus",
		Difficulty: DifficultyEasy,
		Cases: []Case{
			{
				Name: "family code, inferred category",
				Document: article.Document{SourceID: "loi_72_61", Title: "Loi n° 72-61",
					Text: "Article 1.- Le mariage est l'union d'un homme et d'une femme.\n" +
						"Article 2.- Les futurs époux doivent consentir au mariage.\n"},
				Expect: Expect{
					Numbers:  []string{"Article 1", "Article 2"},
					Category: "code_famille",
					Strategy: "numbered_article",
				},
			},
			{
				Name: "short body rejected",
				Document: article.Document{SourceID: "code_civil", Title: "Code civil", Category: "droit_civil",
					Text: "Article 8.- Toute personne a droit au respect de sa vie privée.\nArt. 9.-ok"},
				Expect: Expect{Numbers: []string{"Article 8"}, Category: "droit_civil", Strategy: "numbered_article"},
			},
			{
				Name: "in-sentence references ignored",
				Document: article.Document{SourceID: "cocc", Title: "Code des obligations", Category: "droit_civil",
					Text: "Article 1.- Les dispositions de l'article 12 du présent code s'appliquent aux contrats.\n" +
						"Article 2.- Les contrats sont librement conclus entre les parties.\n"},
				Expect: Expect{Numbers: []string{"Article 1", "Article 2"}, Category: "droit_civil", Strategy: "numbered_article"},
			},
			{
				Name: "penal code, inferred category",
				Document: article.Document{SourceID: "code_penal", Title: "Code pénal",
					Text: "Article 4.- Nul crime, nul délit, nulle contravention ne peut être puni de peines qui n'étaient pas prévues par la loi.\n"},
				Expect: Expect{Numbers: []string{"Article 4"}, Category: "loi_penale", Strategy: "numbered_article"},
			},
			{
				Name: "structural fallback",
				Document: article.Document{SourceID: "charte", Title: "Charte", Category: "constitution",
					Text: "TITRE I - DES DROITS\n" + charter + "\nTITRE II - DES DEVOIRS\n" + charter},
				Expect: Expect{Numbers: []string{"TITRE I", "TITRE II"}, Category: "constitution", Strategy: "structural_section"},
			},
		},
	}
}
