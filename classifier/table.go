package classifier

// UnknownPriority is the sort priority of categories missing from the
// priority list. They sort after every known category but are never
// dropped.
const UnknownPriority = 999

// Rule maps one category to the keywords that select it.
type Rule struct {
	Category string   `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Table holds the classification data: category priorities, the ordered
// keyword rules and the catch-all category.
type Table struct {
	// Priorities lists categories from highest (first) to lowest priority.
	Priorities []string `json:"priorities" yaml:"priorities"`
	// Rules are tried in order; the first rule with a matching keyword wins.
	Rules []Rule `json:"rules" yaml:"rules"`
	// Default is assigned when no rule matches.
	Default string `json:"default" yaml:"default"`
}

// Priority returns the 1-based priority of category, or UnknownPriority.
func (t Table) Priority(category string) int {
	for i, c := range t.Priorities {
		if c == category {
			return i + 1
		}
	}
	return UnknownPriority
}

// DefaultTable returns the Senegalese legal corpus table.
func DefaultTable() Table {
	return Table{
		Priorities: []string{
			"constitution",
			"loi_penale",
			"procedure_penale",
			"droit_civil",
			"procedure_civile",
			"code_famille",
			"droit_travail",
			"securite_sociale",
			"impots",
			"commerce",
			"marches_publics",
			"foncier",
			"urbanisme",
			"assurances",
			"propriete_intellectuelle",
			"sante",
			"education",
			"electoral",
			"presse",
			"environnement",
			"foret",
			"transport",
			"aviation",
		},
		Rules: []Rule{
			{Category: "constitution", Keywords: []string{
				"constitution", "constitutionnel", "constitutionnelle",
				"souverainete", "assemblee nationale", "president de la republique",
			}},
			{Category: "procedure_penale", Keywords: []string{
				"procedure penale", "enquete", "poursuite", "poursuites",
				"juge d instruction", "garde a vue", "ministere public",
			}},
			{Category: "loi_penale", Keywords: []string{
				"penal", "penale", "infraction", "infractions", "peine", "peines",
				"sanction", "crime", "delit", "contravention", "emprisonnement",
			}},
			{Category: "code_famille", Keywords: []string{
				"famille", "mariage", "divorce", "filiation", "epoux",
				"regime matrimonial", "autorite parentale",
			}},
			{Category: "droit_travail", Keywords: []string{
				"travail", "emploi", "salarie", "employeur", "licenciement",
				"contrat de travail", "convention collective",
			}},
			{Category: "securite_sociale", Keywords: []string{
				"securite sociale", "prestations familiales", "pension de retraite",
				"cotisations sociales",
			}},
			{Category: "commerce", Keywords: []string{
				"commercial", "commerciale", "commercant", "societe", "entreprise",
				"registre du commerce",
			}},
			{Category: "impots", Keywords: []string{
				"fiscal", "fiscale", "impot", "impots", "taxe", "taxes", "tva",
				"contribuable", "revenu imposable",
			}},
			{Category: "assurances", Keywords: []string{
				"assurance", "assurances", "assureur", "sinistre", "reassurance",
				"police d assurance",
			}},
			{Category: "environnement", Keywords: []string{
				"environnement", "pollution", "ecologie", "ressources naturelles",
			}},
			{Category: "foncier", Keywords: []string{
				"foncier", "fonciere", "domaine national", "titre foncier",
				"immatriculation", "bail",
			}},
		},
		Default: "droit_civil",
	}
}
