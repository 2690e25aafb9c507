package core

// Encounter is a raid encounter tracked on FFLogs. A zero DifficultyID or
// PartitionID means the value is unspecified.
type Encounter struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EncounterID  int    `json:"encounter_id"`
	DifficultyID int    `json:"difficulty_id,omitempty"`
	PartitionID  int    `json:"partition_id,omitempty"`
}

// Matches reports whether an FFLogs fight with the given encounter and
// difficulty ids is this encounter.
func (e Encounter) Matches(encounterID, difficultyID int) bool {
	return e.EncounterID == encounterID && (e.DifficultyID == 0 || e.DifficultyID == difficultyID)
}

const (
	difficultySavage    = 101
	difficultyCriterion = 10
)

// Extremes
var (
	EWEx7 = Encounter{ID: "EW_EX_7", Name: "ZEROMUS", EncounterID: 1070}
	EWEx6 = Encounter{ID: "EW_EX_6", Name: "GOLBEZ", EncounterID: 1069}
	EWEx5 = Encounter{ID: "EW_EX_5", Name: "RUBICANTE", EncounterID: 1067}
	EWEx4 = Encounter{ID: "EW_EX_4", Name: "BARBARICCIA", EncounterID: 1066}
	EWEx3 = Encounter{ID: "EW_EX_3", Name: "ENDSINGER", EncounterID: 1063}
	EWEx2 = Encounter{ID: "EW_EX_2", Name: "HYDAELYN", EncounterID: 1059}
	EWEx1 = Encounter{ID: "EW_EX_1", Name: "ZODIARK", EncounterID: 1058}
)

// Unreals
var (
	EWUnreal5 = Encounter{ID: "EW_UNREAL_5", Name: "THORDAN_UNREAL", EncounterID: 3008}
	EWUnreal4 = Encounter{ID: "EW_UNREAL_4", Name: "ZURVAN_UNREAL", EncounterID: 3007}
	EWUnreal3 = Encounter{ID: "EW_UNREAL_3", Name: "SOPHIA_UNREAL", EncounterID: 3006}
	EWUnreal2 = Encounter{ID: "EW_UNREAL_2", Name: "SEPHIROT_UNREAL", EncounterID: 3005}
	EWUnreal1 = Encounter{ID: "EW_UNREAL_1", Name: "ULTIMA_UNREAL", EncounterID: 3004}
)

// Savage: Anabaseios
var (
	P9S    = Encounter{ID: "P9S", Name: "P9S", EncounterID: 88, DifficultyID: difficultySavage}
	P10S   = Encounter{ID: "P10S", Name: "P10S", EncounterID: 89, DifficultyID: difficultySavage}
	P11S   = Encounter{ID: "P11S", Name: "P11S", EncounterID: 90, DifficultyID: difficultySavage}
	P12SP1 = Encounter{ID: "P12S_P1", Name: "P12S_P1", EncounterID: 91, DifficultyID: difficultySavage}
	P12S   = Encounter{ID: "P12S", Name: "P12S", EncounterID: 92, DifficultyID: difficultySavage}
)

// Criterion
var (
	EWCrit3 = Encounter{ID: "EW_CRIT_3", Name: "AAI", EncounterID: 4538, DifficultyID: difficultyCriterion}
	EWCrit2 = Encounter{ID: "EW_CRIT_2", Name: "AMR", EncounterID: 4536, DifficultyID: difficultyCriterion}
	EWCrit1 = Encounter{ID: "EW_CRIT_1", Name: "ASS", EncounterID: 4533, DifficultyID: difficultyCriterion}
)

// Ultimates. The same fight is listed once per expansion it was re-released in.
var (
	UWUEW  = Encounter{ID: "UWU_EW", Name: "UWU", EncounterID: 1061}
	UWUShB = Encounter{ID: "UWU_SHB", Name: "UWU", EncounterID: 1048}
	UWUSB  = Encounter{ID: "UWU_SB", Name: "UWU", EncounterID: 1042}

	UCOBEW  = Encounter{ID: "UCOB_EW", Name: "UCOB", EncounterID: 1060}
	UCOBShB = Encounter{ID: "UCOB_SHB", Name: "UCOB", EncounterID: 1047}
	UCOBSB  = Encounter{ID: "UCOB_SB", Name: "UCOB", EncounterID: 1039}

	TEAEW  = Encounter{ID: "TEA_EW", Name: "TEA", EncounterID: 1062}
	TEAShB = Encounter{ID: "TEA_SHB", Name: "TEA", EncounterID: 1050}

	DSREW = Encounter{ID: "DSR_EW", Name: "DSR", EncounterID: 1065}

	TOPEW = Encounter{ID: "TOP_EW", Name: "TOP", EncounterID: 1068}
)

var (
	AllExtremes   = []Encounter{EWEx7, EWEx6, EWEx5, EWEx4, EWEx3, EWEx2, EWEx1}
	AllUnreals    = []Encounter{EWUnreal5, EWUnreal4, EWUnreal3, EWUnreal2, EWUnreal1}
	AllSavages    = []Encounter{P9S, P10S, P11S, P12SP1, P12S}
	AllCriterions = []Encounter{EWCrit3, EWCrit2, EWCrit1}
	Ultimates     = []Encounter{
		UCOBEW, UCOBShB, UCOBSB,
		UWUEW, UWUShB, UWUSB,
		TEAEW, TEAShB,
		DSREW,
		TOPEW,
	}
)

// AllEncounters lists every known encounter in fight-matching order.
var AllEncounters = concat(AllExtremes, AllSavages, AllUnreals, AllCriterions, Ultimates)

// UltimateNames lists the distinct ultimate names.
var UltimateNames = EncounterNames(Ultimates)

// TierEncounterNames groups encounter names by raid tier.
var TierEncounterNames = map[string][]string{
	"ANABASEIOS": {"P9S", "P10S", "P11S", "P12S_P1", "P12S"},
	"ARCADION":   {},
	"ULTIMATE":   {"UCOB", "UWU", "TEA", "DSR", "TOP"},
}

// FindEncounter returns the first catalog encounter matching an FFLogs fight.
func FindEncounter(encounterID, difficultyID int) (Encounter, bool) {
	for _, e := range AllEncounters {
		if e.Matches(encounterID, difficultyID) {
			return e, true
		}
	}
	return Encounter{}, false
}

// EncounterByID looks up a catalog encounter by its ID.
func EncounterByID(id string) (Encounter, bool) {
	for _, e := range AllEncounters {
		if e.ID == id {
			return e, true
		}
	}
	return Encounter{}, false
}

// EncounterNames returns the distinct names of encounters, in order of first appearance.
func EncounterNames(encounters []Encounter) []string {
	seen := make(map[string]struct{}, len(encounters))
	names := make([]string, 0, len(encounters))
	for _, e := range encounters {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
	}
	return names
}

func containsEncounter(list []Encounter, e Encounter) bool {
	for _, c := range list {
		if c == e {
			return true
		}
	}
	return false
}

func concat(lists ...[]Encounter) []Encounter {
	var out []Encounter
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
