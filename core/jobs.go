package core

// JobCategory groups jobs by role.
type JobCategory struct {
	Name     string `json:"name"`
	LongName string `json:"long_name"`
}

var (
	Tank         = JobCategory{Name: "TANK", LongName: "Tank"}
	Healer       = JobCategory{Name: "HEALER", LongName: "Healer"}
	RegenHealer  = JobCategory{Name: "REGEN_HEALER", LongName: "Regen Healer"}
	ShieldHealer = JobCategory{Name: "SHIELD_HEALER", LongName: "Shield Healer"}
	DPS          = JobCategory{Name: "DPS", LongName: "DPS"}
	MeleeDPS     = JobCategory{Name: "MELEE_DPS", LongName: "Melee DPS"}
	PRangedDPS   = JobCategory{Name: "PRANGED_DPS", LongName: "Physical Ranged DPS"}
	CasterDPS    = JobCategory{Name: "CASTER_DPS", LongName: "Caster DPS"}
)

// JobCategories lists all role categories.
var JobCategories = []JobCategory{Tank, Healer, RegenHealer, ShieldHealer, DPS, MeleeDPS, PRangedDPS, CasterDPS}

// Job is a playable class or job. Name matches the FFLogs spec name.
type Job struct {
	TLA          string `json:"tla"`
	Name         string `json:"name"`
	MainCategory string `json:"main_category"`
	SubCategory  string `json:"sub_category,omitempty"`
}

func job(tla, name string, main, sub JobCategory) Job {
	return Job{TLA: tla, Name: name, MainCategory: main.Name, SubCategory: sub.Name}
}

// Jobs lists every class and job.
var Jobs = []Job{
	job("MRD", "Marauder", Tank, JobCategory{}),
	job("WAR", "Warrior", Tank, JobCategory{}),
	job("GLA", "Gladiator", Tank, JobCategory{}),
	job("PLD", "Paladin", Tank, JobCategory{}),
	job("DRK", "DarkKnight", Tank, JobCategory{}),
	job("GNB", "Gunbreaker", Tank, JobCategory{}),
	job("CNJ", "Conjurer", Healer, RegenHealer),
	job("WHM", "WhiteMage", Healer, RegenHealer),
	job("SCH", "Scholar", Healer, ShieldHealer),
	job("AST", "Astrologian", Healer, RegenHealer),
	job("SGE", "Sage", Healer, ShieldHealer),
	job("LNC", "Lancer", DPS, MeleeDPS),
	job("DRG", "Dragoon", DPS, MeleeDPS),
	job("PGL", "Pugilist", DPS, MeleeDPS),
	job("MNK", "Monk", DPS, MeleeDPS),
	job("ROG", "Rogue", DPS, MeleeDPS),
	job("NIN", "Ninja", DPS, MeleeDPS),
	job("SAM", "Samurai", DPS, MeleeDPS),
	job("RPR", "Reaper", DPS, MeleeDPS),
	job("VPR", "Viper", DPS, MeleeDPS),
	job("ARC", "Archer", DPS, PRangedDPS),
	job("BRD", "Bard", DPS, PRangedDPS),
	job("MCH", "Machinist", DPS, PRangedDPS),
	job("DNC", "Dancer", DPS, PRangedDPS),
	job("THM", "Thaumaturge", DPS, CasterDPS),
	job("BLM", "BlackMage", DPS, CasterDPS),
	job("ACN", "Arcanist", DPS, CasterDPS),
	job("SMN", "Summoner", DPS, CasterDPS),
	job("RDM", "RedMage", DPS, CasterDPS),
	job("PCT", "Pictomancer", DPS, CasterDPS),
	job("BLU", "BlueMage", DPS, CasterDPS),
}

var (
	jobsByName = make(map[string]Job, len(Jobs))
	jobsByTLA  = make(map[string]Job, len(Jobs))
)

func init() {
	for _, j := range Jobs {
		jobsByName[j.Name] = j
		jobsByTLA[j.TLA] = j
	}
}

// JobByName looks up a job by its FFLogs spec name, e.g. "DarkKnight".
func JobByName(name string) (Job, bool) {
	j, ok := jobsByName[name]
	return j, ok
}

// JobByTLA looks up a job by its three letter abbreviation.
func JobByTLA(tla string) (Job, bool) {
	j, ok := jobsByTLA[tla]
	return j, ok
}
